package models

import "time"

// Tenant is a provisioned workspace. Provisioning is idempotent: two racing
// provisions of the same tenant ID converge last-write-wins.
type Tenant struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Plan          string    `bson:"plan" json:"plan"`
	ProvisionedAt time.Time `bson:"provisioned_at" json:"provisioned_at"`
}

type ProvisionTenantRequest struct {
	ID   string `json:"id" binding:"required,min=2,max=64"`
	Name string `json:"name" binding:"required,min=2,max=100"`
	Plan string `json:"plan" binding:"omitempty,oneof=trial starter business"`
}
