package domain

// Verdict движка правил. PENDING представляется как DENY с override_allowed=true.
type Verdict string

const (
	VerdictAllow Verdict = "ALLOW"
	VerdictDeny  Verdict = "DENY"
)

// Judgment — вердикт движка правил. Создается один раз и может быть
// мутирован ровно один раз оркестратором — при наложении monitor-mode override.
type Judgment struct {
	Judgment            Verdict  `json:"judgment"`
	ReasoningBullets    []string `json:"reasoning_bullets"`
	AdversarialQuestion string   `json:"adversarial_question"`
	OverrideAllowed     bool     `json:"override_allowed"`
	MonitorModeOverride bool     `json:"monitor_mode_override,omitempty"`
	Warning             string   `json:"warning,omitempty"`
}
