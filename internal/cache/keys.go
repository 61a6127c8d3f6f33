package cache

import (
	"fmt"
	"net/url"
	"time"
)

const (
	PostKeyPrefix     = "post:%d"
	UserRoleKeyPrefix = "user:%s:role"
	WSTicketKeyPrefix = "ws_ticket:%s"

	PostsListNamespace = "posts:list"
	CategoriesKey      = "categories:all"
	StatusesKey        = "statuses:all"
)

const (
	PostTTL     = 30 * time.Minute
	ListTTL     = 2 * time.Minute
	CatalogTTL  = 10 * time.Minute
	UserRoleTTL = 5 * time.Minute
	WSTicketTTL = 30 * time.Second
)

func versionKey(namespace string) string {
	return namespace + ":version"
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func UserRoleKey(userID string) string {
	return fmt.Sprintf(UserRoleKeyPrefix, userID)
}

// WSTicketKey holds the user ID a websocket ticket was issued to.
func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// PostsListKey identifies one public listing page within a namespace generation.
func PostsListKey(version int64, page, limit int, category, keyword string) string {
	return fmt.Sprintf("%s:v%d:p%d:l%d:c=%s:k=%s",
		PostsListNamespace, version, page, limit,
		url.QueryEscape(category), url.QueryEscape(keyword))
}
