package avgchat

import (
	"fmt"
	"sync"
)

// Model is one of the three mutually exclusive model variants. The values
// are the wire enum of the chat-stream contract.
type Model string

const (
	// ModelSmart is the balanced default.
	ModelSmart Model = "smart"
	// ModelPro is the high-capability variant for complex questions.
	ModelPro Model = "pro"
	// ModelInternet answers with retrieval grounding against live sources.
	ModelInternet Model = "internet"
)

func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelSmart, ModelPro, ModelInternet:
		return Model(s), nil
	default:
		return "", fmt.Errorf("unknown model variant %q", s)
	}
}

// ModelConfig holds the selected variant and the grounding flag. Grounding
// is forced on for as long as the internet variant is selected; switching
// away leaves the flag under explicit user control.
type ModelConfig struct {
	mu        sync.Mutex
	model     Model
	grounding bool
}

func NewModelConfig(m Model) *ModelConfig {
	cfg := &ModelConfig{model: ModelSmart, grounding: true}
	if m != "" {
		cfg.SetModel(m)
	}
	return cfg
}

func (c *ModelConfig) SetModel(m Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = m
	if m == ModelInternet {
		c.grounding = true
	}
}

func (c *ModelConfig) Model() Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetGrounding updates the flag. It is a no-op while the internet variant
// is selected: that variant always grounds.
func (c *ModelConfig) SetGrounding(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == ModelInternet {
		return
	}
	c.grounding = on
}

func (c *ModelConfig) Grounding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grounding
}

// EffectiveGrounding is the flag actually sent: always true for the
// internet variant, always false otherwise.
func (c *ModelConfig) EffectiveGrounding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model == ModelInternet
}
