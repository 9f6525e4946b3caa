package repo

import (
	"github.com/google/wire"

	"github.com/crewsync/crewsync/internal/engine/repo/user"
	"github.com/crewsync/crewsync/internal/engine/repo/workspace"
)

// ProviderSet wires the repository layer.
var ProviderSet = wire.NewSet(
	workspace.NewWorkspaceRepo,
	user.NewUserRepo,
)
