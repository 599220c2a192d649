package llmprovider

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

//go:embed config/profiles.yaml
var embeddedProfilesYAML []byte

// Vendor profiles describe how a vendor's stream is framed and where its
// usage and error details live, so the normalizers ask the profile instead
// of hard-coding paths.
//
// Library users can override embedded profiles by:
//  1. Calling LoadProfilesFromFile() with custom YAML
//  2. Calling RegisterProfile() programmatically

// ProfilesFile is the on-disk shape of a profiles YAML document
type ProfilesFile struct {
	Version     string          `yaml:"version"`      // Semantic version (e.g., "1.0.0")
	LastUpdated string          `yaml:"last_updated"` // ISO 8601 date (e.g., "2025-01-15")
	Profiles    []VendorProfile `yaml:"profiles"`
}

// VendorProfile is the per-vendor configuration consumed by the chunk
// decoder, the normalizers and the transport's error classification.
type VendorProfile struct {
	Provider string `yaml:"provider"`

	// Framing is "data" (data: lines only) or "event" (event: + data: pairs)
	Framing string `yaml:"framing"`

	// DoneSentinel terminates the stream when seen as a data payload (empty = none)
	DoneSentinel string `yaml:"done_sentinel"`

	// PromoteToolCalls upgrades a stop/unknown finish to tool_calls when the
	// turn produced tool calls, for vendors that never report tool_calls themselves
	PromoteToolCalls bool `yaml:"promote_tool_calls"`

	// Reasons overrides or extends the vendor's finish-reason table
	Reasons map[string]string `yaml:"reasons"`

	// ThinkingBudgets maps thinking_level to a token budget
	ThinkingBudgets map[string]int `yaml:"thinking_budgets"`

	Usage  UsagePaths `yaml:"usage"`
	Errors ErrorPaths `yaml:"errors"`
}

// UsagePaths lists candidate gjson paths per usage field; the first path
// present in a payload wins.
type UsagePaths struct {
	PromptTokens          []string `yaml:"prompt_tokens"`
	CompletionTokens      []string `yaml:"completion_tokens"`
	CacheWriteInputTokens []string `yaml:"cache_write_input_tokens"`
	CacheReadInputTokens  []string `yaml:"cache_read_input_tokens"`
	ThoughtTokens         []string `yaml:"thought_tokens"`
}

// ErrorPaths locates error details in a payload and lists the vendor codes
// that classify as overloaded or rate limited.
type ErrorPaths struct {
	Type        []string `yaml:"type"`
	Message     []string `yaml:"message"`
	Overloaded  []string `yaml:"overloaded"`
	RateLimited []string `yaml:"rate_limited"`
}

// Default thinking budgets (used when a profile does not define the level)
var defaultThinkingBudgets = map[string]int{
	"low":    2000,
	"medium": 5000,
	"high":   12000,
}

// ExtractUsage reads every usage field the payload reports. Fields with no
// matching path stay nil.
func (p *VendorProfile) ExtractUsage(data []byte) Usage {
	return Usage{
		PromptTokens:          firstInt(data, p.Usage.PromptTokens),
		CompletionTokens:      firstInt(data, p.Usage.CompletionTokens),
		CacheWriteInputTokens: firstInt(data, p.Usage.CacheWriteInputTokens),
		CacheReadInputTokens:  firstInt(data, p.Usage.CacheReadInputTokens),
		ThoughtTokens:         firstInt(data, p.Usage.ThoughtTokens),
	}
}

// HasError reports whether the payload carries an error object at any configured path.
func (p *VendorProfile) HasError(data []byte) bool {
	for _, path := range p.Errors.Message {
		if gjson.GetBytes(data, path).Exists() {
			return true
		}
	}
	return false
}

// ExtractError returns the vendor error type and message from a payload.
func (p *VendorProfile) ExtractError(data []byte) (errType, message string) {
	return firstString(data, p.Errors.Type), firstString(data, p.Errors.Message)
}

// ClassifyError maps a vendor error type and HTTP status to an ErrorKind.
// HTTP 429 is always rate limited and 529 always overloaded.
func (p *VendorProfile) ClassifyError(errType string, statusCode int) ErrorKind {
	switch statusCode {
	case 429:
		return ErrorKindRateLimited
	case 529:
		return ErrorKindOverloaded
	}

	for _, code := range p.Errors.Overloaded {
		if strings.EqualFold(code, errType) {
			return ErrorKindOverloaded
		}
	}
	for _, code := range p.Errors.RateLimited {
		if strings.EqualFold(code, errType) {
			return ErrorKindRateLimited
		}
	}
	return ErrorKindProvider
}

// ApplyReasons returns base extended with the profile's reason overrides.
func (p *VendorProfile) ApplyReasons(base ReasonTable) ReasonTable {
	return base.With(p.Reasons)
}

// ThinkingBudget converts a thinking level to a token budget.
func (p *VendorProfile) ThinkingBudget(level string) (int, error) {
	if budget, ok := p.ThinkingBudgets[level]; ok {
		return budget, nil
	}
	if budget, ok := defaultThinkingBudgets[level]; ok {
		return budget, nil
	}
	return 0, fmt.Errorf("unknown thinking level: %s (valid: low, medium, high)", level)
}

func firstInt(data []byte, paths []string) *int {
	for _, path := range paths {
		if v := gjson.GetBytes(data, path); v.Exists() && v.Type == gjson.Number {
			n := int(v.Int())
			return &n
		}
	}
	return nil
}

func firstString(data []byte, paths []string) string {
	for _, path := range paths {
		if v := gjson.GetBytes(data, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// ProfileRegistry manages vendor profiles
type ProfileRegistry struct {
	profiles map[string]*VendorProfile
	mu       sync.RWMutex
}

var (
	globalProfiles     *ProfileRegistry
	globalProfilesOnce sync.Once
)

// GetProfileRegistry returns the global profile registry (singleton)
func GetProfileRegistry() *ProfileRegistry {
	globalProfilesOnce.Do(func() {
		globalProfiles = &ProfileRegistry{
			profiles: make(map[string]*VendorProfile),
		}
		if err := globalProfiles.load(embeddedProfilesYAML); err != nil {
			// The embedded file ships with the module; failing here is a build defect
			panic(fmt.Sprintf("llmprovider: embedded profiles: %v", err))
		}
	})
	return globalProfiles
}

func (r *ProfileRegistry) load(data []byte) error {
	var file ProfilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal profiles: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range file.Profiles {
		profile := file.Profiles[i]
		if profile.Provider == "" {
			return fmt.Errorf("profile %d has no provider", i)
		}
		r.profiles[profile.Provider] = &profile
	}
	return nil
}

// Profile returns the profile for a provider
func (r *ProfileRegistry) Profile(provider ProviderID) (*VendorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[string(provider)]
	if !ok {
		return nil, fmt.Errorf("no profile found for provider: %s", provider)
	}
	return profile, nil
}

// LoadProfilesFromFile loads vendor profiles from a YAML file, replacing
// profiles for the same providers. The file format matches the embedded YAML.
func (r *ProfileRegistry) LoadProfilesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles file: %w", err)
	}
	return r.load(data)
}

// RegisterProfile programmatically registers a vendor profile.
func (r *ProfileRegistry) RegisterProfile(profile *VendorProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.Provider] = profile
}

// GetProfile is a convenience function that calls the global registry's Profile.
func GetProfile(provider ProviderID) (*VendorProfile, error) {
	return GetProfileRegistry().Profile(provider)
}

// LoadProfilesFromFile is a convenience function that calls the global registry's LoadProfilesFromFile.
func LoadProfilesFromFile(path string) error {
	return GetProfileRegistry().LoadProfilesFromFile(path)
}

// RegisterProfile is a convenience function that calls the global registry's RegisterProfile.
func RegisterProfile(profile *VendorProfile) {
	GetProfileRegistry().RegisterProfile(profile)
}
