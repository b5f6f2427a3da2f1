package catalog

import (
	"database/sql"

	"go.uber.org/zap"
)

// Module exposes the catalog controller and the pricing service checkout
// depends on.
type Module struct {
	Controller *Controller
	Service    *Service
}

func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	repo := NewMySQLRepository(db)
	svc := NewService(repo)
	uc := NewSearchUseCase(svc)
	return &Module{
		Controller: NewController(uc, logger),
		Service:    svc,
	}
}
