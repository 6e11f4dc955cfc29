package rbac

import "gorm.io/gorm"

const (
	PolicyTypePermission = "p"
	PolicyTypeGrouping   = "g"
)

// PolicyRow is a casbin rule. For "p" rows V0..V2 are role, resource and
// action; for "g" rows V0 inherits every permission of V1.
type PolicyRow struct {
	ID    uint   `gorm:"primaryKey"`
	PType string `gorm:"column:ptype;type:varchar(10)"`
	V0    string `gorm:"column:v0;type:varchar(100)"`
	V1    string `gorm:"column:v1;type:varchar(100)"`
	V2    string `gorm:"column:v2;type:varchar(100)"`
}

func (PolicyRow) TableName() string {
	return "casbin_rule"
}

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	ListPolicies() ([]PolicyRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPolicies() ([]PolicyRow, error) {
	var rows []PolicyRow
	err := r.db.Order("ptype, id").Find(&rows).Error
	return rows, err
}
