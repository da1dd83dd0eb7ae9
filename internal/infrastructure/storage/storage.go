package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// AvatarName builds the stored file name for a user's upload: <userID>-<unixmillis><ext>.
func AvatarName(userID, originalName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(originalName))
	return fmt.Sprintf("%s-%d%s", userID, now.UnixMilli(), ext)
}

// safeName rejects anything that could escape the avatar directory or prefix.
func safeName(name string) error {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}
