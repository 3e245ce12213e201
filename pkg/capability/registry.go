// Package capability implements clawforge's capability registry (§4.4):
// a static, process-wide immutable table of every operation a runner
// may claim to have used, each tagged with a category, a risk level,
// the roles allowed to invoke it, and whether it requires a human
// confirmation proof before evidence citing it can be accepted.
package capability

// Category is the closed enum of capability categories. At least two
// distinct categories must be present in the registry.
type Category string

const (
	CategoryFilesystem    Category = "filesystem"
	CategoryValidation    Category = "validation"
	CategoryComputation   Category = "computation"
	CategoryTransformation Category = "transformation"
	CategoryVerification  Category = "verification"
	CategoryMetadata      Category = "metadata"
)

// RiskLevel is the closed enum of capability risk levels.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Capability is one statically-registered operation category.
type Capability struct {
	ID                     string
	Description            string
	Category               Category
	RiskLevel              RiskLevel
	AllowedRoles           []string
	RequiresHumanConfirmation bool
}

// Registry is the immutable, process-wide capability table. The zero
// value is not usable; construct with NewRegistry.
type Registry struct {
	byID map[string]Capability
}

// NewRegistry builds a Registry from caps, enforcing the invariants of
// §4.4: unique ids, non-empty allowedRoles per entry, at least one
// entry with requiresHumanConfirmation=true, and at least two distinct
// categories. It panics on violation since the registry is meant to be
// built once at process startup from a fixed, trusted table — not from
// user input.
func NewRegistry(caps []Capability) *Registry {
	byID := make(map[string]Capability, len(caps))
	categories := make(map[Category]bool)
	anyHumanConfirm := false
	for _, c := range caps {
		if c.ID == "" {
			panic("capability: empty id in registry table")
		}
		if _, dup := byID[c.ID]; dup {
			panic("capability: duplicate id " + c.ID + " in registry table")
		}
		if len(c.AllowedRoles) == 0 {
			panic("capability: capability " + c.ID + " has no allowedRoles")
		}
		byID[c.ID] = c
		categories[c.Category] = true
		if c.RequiresHumanConfirmation {
			anyHumanConfirm = true
		}
	}
	if !anyHumanConfirm {
		panic("capability: no capability in the table requires human confirmation")
	}
	if len(categories) < 2 {
		panic("capability: registry table must span at least two categories")
	}
	return &Registry{byID: byID}
}

// IsRegistered reports whether id names a known capability.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// RequiresHumanConfirmation reports whether the capability id requires
// a human confirmation proof. Unregistered ids report false; callers
// must check IsRegistered first to distinguish "unregistered" from
// "registered, no confirmation needed".
func (r *Registry) RequiresHumanConfirmation(id string) bool {
	c, ok := r.byID[id]
	return ok && c.RequiresHumanConfirmation
}

// IsRoleAllowedForCapability reports whether role may invoke id.
// Unregistered ids always report false.
func (r *Registry) IsRoleAllowedForCapability(id, role string) bool {
	c, ok := r.byID[id]
	if !ok {
		return false
	}
	for _, allowed := range c.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Get returns the capability registered under id.
func (r *Registry) Get(id string) (Capability, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// DefaultCapabilities is the built-in capability table clawforge ships
// with: the set of operations clawforge's own reference runner may cite
// as evidence sources. Deployments that need a different table should
// build their own Registry with NewRegistry rather than mutating this
// slice; the registry itself is immutable once constructed.
var DefaultCapabilities = []Capability{
	{
		ID:           "fs.read",
		Description:  "Read a file from the workspace",
		Category:     CategoryFilesystem,
		RiskLevel:    RiskLow,
		AllowedRoles: []string{"runner", "automation"},
	},
	{
		ID:                        "fs.write",
		Description:               "Write or modify a file in the workspace",
		Category:                  CategoryFilesystem,
		RiskLevel:                 RiskHigh,
		AllowedRoles:              []string{"runner"},
		RequiresHumanConfirmation: true,
	},
	{
		ID:           "test.run_unit",
		Description:  "Execute a unit test suite",
		Category:     CategoryVerification,
		RiskLevel:    RiskLow,
		AllowedRoles: []string{"runner", "automation"},
	},
	{
		ID:           "test.run_integration",
		Description:  "Execute an integration test suite",
		Category:     CategoryVerification,
		RiskLevel:    RiskMedium,
		AllowedRoles: []string{"runner", "automation"},
	},
	{
		ID:           "lint.run",
		Description:  "Run a static linter over changed files",
		Category:     CategoryValidation,
		RiskLevel:    RiskLow,
		AllowedRoles: []string{"runner", "automation"},
	},
	{
		ID:           "build.compile",
		Description:  "Compile the project",
		Category:     CategoryComputation,
		RiskLevel:    RiskLow,
		AllowedRoles: []string{"runner", "automation"},
	},
	{
		ID:           "diff.extract_symbols",
		Description:  "Extract changed paths and symbols from a unified diff",
		Category:     CategoryTransformation,
		RiskLevel:    RiskLow,
		AllowedRoles: []string{"runner", "static"},
	},
	{
		ID:                        "deploy.apply",
		Description:               "Apply a deployment or infrastructure change",
		Category:                  CategoryComputation,
		RiskLevel:                 RiskCritical,
		AllowedRoles:              []string{"runner"},
		RequiresHumanConfirmation: true,
	},
	{
		ID:           "meta.record_timestamp",
		Description:  "Record a wall-clock timestamp against an artifact",
		Category:     CategoryMetadata,
		RiskLevel:    RiskLow,
		AllowedRoles: []string{"runner", "automation", "static", "security", "qa", "e2e"},
	},
}

// DefaultRegistry is the Registry built from DefaultCapabilities.
var DefaultRegistry = NewRegistry(DefaultCapabilities)
