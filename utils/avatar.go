package utils

import (
	"fmt"
	"net/url"
)

// DefaultAvatarURL derives a stable placeholder avatar from the user id, so
// accounts without a provider-supplied photo always render the same image.
func DefaultAvatarURL(id string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200", url.PathEscape(id))
}
