// Package authz はロールごとに許可する操作の一覧。
// ハンドラの先頭で Allowed を呼ぶ（未ログインは空のロール）
package authz

import "github.com/gulzar72441/FastEndpoints-Ecommerce/internal/domain/model"

type Operation string

const (
	// 誰でも
	BrowseCatalog    Operation = "catalog:browse"
	PreviewPrice     Operation = "catalog:price"
	ViewActivePromos Operation = "promotions:active"
	Register         Operation = "auth:register"
	Login            Operation = "auth:login"

	// Customer / Admin
	UseCart       Operation = "cart:use"
	Checkout      Operation = "checkout"
	PlaceOrder    Operation = "orders:create"
	ReadOwnOrders Operation = "orders:read"

	// Admin
	ReadAnyOrder     Operation = "orders:read-any"
	ManageOrders     Operation = "orders:manage"
	ManagePayments   Operation = "payments:manage"
	ManageCatalog    Operation = "catalog:manage"
	ManageInventory  Operation = "inventory:manage"
	ManagePromotions Operation = "promotions:manage"
	ViewAuditLogs    Operation = "audit:read"
)

// Anonymous は未ログイン
const Anonymous model.Role = ""

var (
	everyone  = []model.Role{Anonymous, model.RoleCustomer, model.RoleAdmin}
	members   = []model.Role{model.RoleCustomer, model.RoleAdmin}
	adminOnly = []model.Role{model.RoleAdmin}
)

var policy = map[Operation][]model.Role{
	BrowseCatalog:    everyone,
	PreviewPrice:     everyone,
	ViewActivePromos: everyone,
	Register:         everyone,
	Login:            everyone,

	UseCart:       members,
	Checkout:      members,
	PlaceOrder:    members,
	ReadOwnOrders: members,

	ReadAnyOrder:     adminOnly,
	ManageOrders:     adminOnly,
	ManagePayments:   adminOnly,
	ManageCatalog:    adminOnly,
	ManageInventory:  adminOnly,
	ManagePromotions: adminOnly,
	ViewAuditLogs:    adminOnly,
}

// 一覧にない操作は誰にも許可しない
func Allowed(role model.Role, op Operation) bool {
	for _, r := range policy[op] {
		if r == role {
			return true
		}
	}
	return false
}
