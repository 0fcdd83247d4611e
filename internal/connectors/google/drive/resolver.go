package drive

import "strings"

// ResolveWebURL returns the browser URL of a Drive file.
// The API's web view link wins; otherwise the URL is built from the file ID.
func ResolveWebURL(fileID, webViewLink string) string {
	if webViewLink != "" {
		return webViewLink
	}
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return ""
	}
	return "https://drive.google.com/file/d/" + fileID + "/view"
}
