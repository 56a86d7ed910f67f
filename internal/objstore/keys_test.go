package objstore

import "testing"

func TestBuildAndParseKey(t *testing.T) {
	key := BuildKey("ws_1", "doc_2", "ver_3", "report.pdf")
	want := "workspaces/ws_1/documents/doc_2/ver_3/report.pdf"
	if key != want {
		t.Fatalf("BuildKey = %q, want %q", key, want)
	}

	workspaceID, documentID, versionID, ok := ParseKey(key)
	if !ok {
		t.Fatalf("ParseKey(%q) not ok", key)
	}
	if workspaceID != "ws_1" || documentID != "doc_2" || versionID != "ver_3" {
		t.Fatalf("ParseKey = (%q, %q, %q)", workspaceID, documentID, versionID)
	}
}

func TestBuildKeySanitizesFileName(t *testing.T) {
	key := BuildKey("ws", "doc", "ver", "../etc/passwd")
	if _, _, _, ok := ParseKey(key); !ok {
		t.Fatalf("sanitized key should still parse, got %q", key)
	}
}

func TestParseKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"user/abc/file.txt",
		"workspaces/ws/documents/doc",
		"workspaces/ws/other/doc/ver/file",
	} {
		if _, _, _, ok := ParseKey(key); ok {
			t.Errorf("ParseKey(%q) unexpectedly ok", key)
		}
	}
}
