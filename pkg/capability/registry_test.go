package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRegistry_Invariants(t *testing.T) {
	assert.True(t, DefaultRegistry.IsRegistered("fs.write"))
	assert.False(t, DefaultRegistry.IsRegistered("nonexistent.capability"))
}

func TestRegistry_RequiresHumanConfirmation(t *testing.T) {
	assert.True(t, DefaultRegistry.RequiresHumanConfirmation("fs.write"))
	assert.False(t, DefaultRegistry.RequiresHumanConfirmation("fs.read"))
	assert.False(t, DefaultRegistry.RequiresHumanConfirmation("nonexistent.capability"))
}

func TestRegistry_IsRoleAllowedForCapability(t *testing.T) {
	assert.True(t, DefaultRegistry.IsRoleAllowedForCapability("fs.read", "runner"))
	assert.False(t, DefaultRegistry.IsRoleAllowedForCapability("fs.read", "security"))
	assert.False(t, DefaultRegistry.IsRoleAllowedForCapability("nonexistent.capability", "runner"))
}

func TestRegistry_Get(t *testing.T) {
	c, ok := DefaultRegistry.Get("fs.write")
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, c.RiskLevel)

	_, ok = DefaultRegistry.Get("nonexistent.capability")
	assert.False(t, ok)
}

func TestNewRegistry_PanicsOnDuplicateID(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Capability{
			{ID: "a", Category: CategoryFilesystem, AllowedRoles: []string{"runner"}, RequiresHumanConfirmation: true},
			{ID: "a", Category: CategoryValidation, AllowedRoles: []string{"runner"}},
		})
	})
}

func TestNewRegistry_PanicsOnEmptyAllowedRoles(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Capability{
			{ID: "a", Category: CategoryFilesystem, RequiresHumanConfirmation: true},
			{ID: "b", Category: CategoryValidation, AllowedRoles: []string{"runner"}},
		})
	})
}

func TestNewRegistry_PanicsWithoutAnyHumanConfirmation(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Capability{
			{ID: "a", Category: CategoryFilesystem, AllowedRoles: []string{"runner"}},
			{ID: "b", Category: CategoryValidation, AllowedRoles: []string{"runner"}},
		})
	})
}

func TestNewRegistry_PanicsWithSingleCategory(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry([]Capability{
			{ID: "a", Category: CategoryFilesystem, AllowedRoles: []string{"runner"}, RequiresHumanConfirmation: true},
			{ID: "b", Category: CategoryFilesystem, AllowedRoles: []string{"runner"}},
		})
	})
}

func TestNewRegistry_SucceedsWithValidTable(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRegistry([]Capability{
			{ID: "a", Category: CategoryFilesystem, AllowedRoles: []string{"runner"}, RequiresHumanConfirmation: true},
			{ID: "b", Category: CategoryValidation, AllowedRoles: []string{"runner"}},
		})
	})
}
