package tools

import (
	"github.com/reifyhq/reify/internals/platform"
	"github.com/reifyhq/reify/internals/registry"
)

// RegisterAll populates the catalog with every platform operation.
func RegisterAll(reg *registry.Registry, client *platform.Client) {
	registerAdminTools(reg, client)
	registerDesignerTools(reg, client)
	registerOrgTools(reg, client)
}
