package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Numbering defaults applied when a vendor has no configuration yet
const (
	DefaultPrefix     = "INV"
	DefaultStartCount = int64(1)
	MaxPrefixLength   = 10
)

// SequenceConfig is the per-vendor invoice numbering state.
// CurrentCount is the next number to issue and never drops below StartCount.
type SequenceConfig struct {
	VendorID     uuid.UUID
	Prefix       string
	StartCount   int64
	CurrentCount int64
	Version      int
	UpdatedAt    time.Time
}

// UsedNumber is an append-only record of an issued display number
type UsedNumber struct {
	VendorID      uuid.UUID
	DisplayNumber string
	ReceivableID  uuid.UUID
	IssuedAt      time.Time
}

// NewDefaultSequenceConfig returns the configuration used on first use
func NewDefaultSequenceConfig(vendorID uuid.UUID) *SequenceConfig {
	return &SequenceConfig{
		VendorID:     vendorID,
		Prefix:       DefaultPrefix,
		StartCount:   DefaultStartCount,
		CurrentCount: DefaultStartCount,
		Version:      1,
		UpdatedAt:    time.Now(),
	}
}

// NormalizePrefix trims and uppercases a prefix and checks its length
func NormalizePrefix(prefix string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(prefix))
	if p == "" {
		return "", NewInvalidConfigError("Prefix is required")
	}
	if utf8.RuneCountInString(p) > MaxPrefixLength {
		return "", NewInvalidConfigError(fmt.Sprintf("Prefix must be at most %d characters", MaxPrefixLength))
	}
	return p, nil
}

// ValidateStartCount checks that the start count is at least 1
func ValidateStartCount(startCount int64) error {
	if startCount < 1 {
		return NewInvalidConfigError("Start count must be at least 1")
	}
	return nil
}

// Width is the zero-padding width: the digit length of StartCount
func (c *SequenceConfig) Width() int {
	return len(strconv.FormatInt(c.StartCount, 10))
}

// Format renders n as a display number. Numbers wider than Width are not truncated.
func (c *SequenceConfig) Format(n int64) string {
	return fmt.Sprintf("%s%0*d", c.Prefix, c.Width(), n)
}

// Preview returns the number the next Issue call will produce
func (c *SequenceConfig) Preview() string {
	return c.Format(c.CurrentCount)
}

// Issue returns the next display number and advances the counter
func (c *SequenceConfig) Issue() string {
	number := c.Format(c.CurrentCount)
	c.CurrentCount++
	c.Version++
	c.UpdatedAt = time.Now()
	return number
}

// ChangesStartCount reports whether applying startCount would reset the counter
func (c *SequenceConfig) ChangesStartCount(startCount int64) bool {
	return startCount != c.StartCount
}

// Reconfigure applies a new prefix and start count. Changing the start count
// resets CurrentCount to it, which can reissue numbers handed out before.
func (c *SequenceConfig) Reconfigure(prefix string, startCount int64) (reset bool, err error) {
	p, err := NormalizePrefix(prefix)
	if err != nil {
		return false, err
	}
	if err := ValidateStartCount(startCount); err != nil {
		return false, err
	}

	reset = c.ChangesStartCount(startCount)
	c.Prefix = p
	if reset {
		c.StartCount = startCount
		c.CurrentCount = startCount
	}
	c.Version++
	c.UpdatedAt = time.Now()
	return reset, nil
}
