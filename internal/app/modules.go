package app

import (
	"github.com/vk/gridci/internal/registry"
	archivemod "github.com/vk/gridci/modules/archive"
	cachemod "github.com/vk/gridci/modules/cache"
	checkoutmod "github.com/vk/gridci/modules/checkout"
	execmod "github.com/vk/gridci/modules/exec"
	uploadmod "github.com/vk/gridci/modules/upload"
)

// coreModules is the default capability set registered when the caller
// does not inject its own (tests substitute stubs here).
var coreModules = []registry.Module{
	&execmod.Module{},
	&checkoutmod.Module{},
	&cachemod.Module{},
	&archivemod.Module{},
	&uploadmod.Module{},
}
