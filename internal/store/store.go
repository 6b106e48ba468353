// Package store groups the repository implementations. The postgres and
// sqlite subpackages provide the SQL-backed repositories behind the domain
// interfaces; the redis subpackage provides an alternative presence store.
package store

import "negoshop/internal/domain"

// Repositories bundles one concrete implementation of every repository so
// the composition root can swap storage backends in one place.
type Repositories struct {
	Users         domain.UserRepository
	Shops         domain.ShopRepository
	Products      domain.ProductRepository
	Conversations domain.ConversationRepository
	Messages      domain.MessageRepository
	Activities    domain.ActivityRepository
}
