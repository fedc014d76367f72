// Package dto holds the response shapes the API returns where they
// differ from the storage models.
package dto

import "github.com/devtrackhq/statusboard/internal/models"

// DeveloperDTO is the public view of a developer account.
type DeveloperDTO struct {
	ID       uint64    `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	Roles    []RoleDTO `json:"roles"`
}

// RoleDTO is the public view of a role.
type RoleDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ToDeveloperDTO converts a developer model to its public view.
func ToDeveloperDTO(dev models.Developer) DeveloperDTO {
	roles := make([]RoleDTO, 0, len(dev.Roles))
	for _, r := range dev.Roles {
		roles = append(roles, ToRoleDTO(r))
	}
	return DeveloperDTO{
		ID:       dev.ID,
		Name:     dev.Name,
		Username: dev.Username,
		Color:    dev.Color,
		Roles:    roles,
	}
}

// ToDeveloperDTOs converts a slice of developers.
func ToDeveloperDTOs(devs []models.Developer) []DeveloperDTO {
	out := make([]DeveloperDTO, 0, len(devs))
	for _, d := range devs {
		out = append(out, ToDeveloperDTO(d))
	}
	return out
}

// ToRoleDTO converts a role model to its public view.
func ToRoleDTO(role models.Role) RoleDTO {
	return RoleDTO{ID: role.ID, Name: role.Name}
}
