package app

import (
	"github.com/vk/dojobber/internal/registry"
	"github.com/vk/dojobber/modules/filejob"
	"github.com/vk/dojobber/modules/httpjob"
	"github.com/vk/dojobber/modules/printjob"
	"github.com/vk/dojobber/modules/shelljob"
)

// coreModules is the definitive list of all job kind modules compiled
// into the dojobber binary.
var coreModules = []registry.Module{
	&filejob.Module{},
	&shelljob.Module{},
	&httpjob.Module{},
	&printjob.Module{},
}
