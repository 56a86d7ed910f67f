package objstore

import (
	"fmt"
	"strings"
)

// BuildKey constructs the object key for a document version. Keys group all
// versions under their document so a cascade delete has one prefix to sweep.
func BuildKey(workspaceID, documentID, versionID, fileName string) string {
	return fmt.Sprintf("workspaces/%s/documents/%s/%s/%s", workspaceID, documentID, versionID, sanitizeFileName(fileName))
}

// ParseKey extracts the identifiers back out of an object key.
func ParseKey(key string) (workspaceID, documentID, versionID string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 6 || parts[0] != "workspaces" || parts[2] != "documents" {
		return "", "", "", false
	}
	return parts[1], parts[3], parts[4], true
}

// sanitizeFileName keeps object keys flat: path separators in a user-supplied
// file name must not introduce extra key segments.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
