package rbac

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadPolicy() error
	Enforce(req EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, enforcer: enforcer, logger: l}
}

// LoadPolicy replaces the in-memory policy with the rows in the database.
func (s *service) LoadPolicy() error {
	rows, err := s.repo.ListPolicies()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforcer.ClearPolicy()

	permissions, groupings := 0, 0
	for _, row := range rows {
		switch row.PType {
		case PolicyTypePermission:
			if _, err := s.enforcer.AddPolicy(row.V0, row.V1, row.V2); err != nil {
				return err
			}
			permissions++
		case PolicyTypeGrouping:
			if _, err := s.enforcer.AddGroupingPolicy(row.V0, row.V1); err != nil {
				return err
			}
			groupings++
		default:
			return fmt.Errorf("unknown policy type %q in rule %d", row.PType, row.ID)
		}
	}

	s.logger.Info("rbac policy loaded",
		zap.Int("permissions", permissions),
		zap.Int("role_inheritance", groupings),
	)
	return nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Subject, req.Resource, req.Action)
	if err != nil {
		return false, err
	}

	s.logger.Debug("rbac enforce",
		zap.String("subject", req.Subject),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
