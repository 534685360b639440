package security

import "testing"

func defaultClassifier() *Classifier {
	return NewClassifier(Lists{})
}

func TestIsCriticalByExtension(t *testing.T) {
	c := defaultClassifier()

	tests := []struct {
		path     string
		critical bool
	}{
		{"/home/user/driver.sys", true},
		{"/home/user/library.dll", true},
		{"/home/user/app.exe", true},
		{"/home/user/lib.so", true},
		{"/home/user/LIB.DLL", true}, // Extension match is case-insensitive
		{"/home/user/notes.txt", false},
		{"/home/user/photo.jpg", false},
	}

	for _, tt := range tests {
		if got := c.IsCritical(tt.path); got != tt.critical {
			t.Errorf("IsCritical(%q) = %v, want %v", tt.path, got, tt.critical)
		}
	}
}

func TestIsCriticalByPath(t *testing.T) {
	c := defaultClassifier()

	if !c.IsCritical("/boot/config.txt") {
		t.Error("file under /boot should be critical")
	}
	if !c.IsCritical(`C:\Windows\System32\config.txt`) {
		t.Error("file under System32 should be critical")
	}
	if c.IsCritical("/home/user/config.txt") {
		t.Error("plain user file should not be critical")
	}
}

func TestIsSystemFile(t *testing.T) {
	c := defaultClassifier()

	tests := []struct {
		path   string
		system bool
	}{
		{"/usr/share/doc/readme", true},
		{"/home/user/desktop.ini", true},
		{"/home/user/Thumbs.db", true}, // Reserved names are case-insensitive
		{"/home/user/.bashrc", true},   // Dotfiles count as system files
		{"/home/user/report.pdf", false},
	}

	for _, tt := range tests {
		if got := c.IsSystemFile(tt.path); got != tt.system {
			t.Errorf("IsSystemFile(%q) = %v, want %v", tt.path, got, tt.system)
		}
	}
}

func TestIsExcluded(t *testing.T) {
	c := defaultClassifier()

	if !c.IsExcluded("/proc/1/status") {
		t.Error("path under /proc should be excluded")
	}
	if !c.IsExcluded(`C:\$Recycle.Bin\S-1-5\file`) {
		t.Error("path under the recycle bin should be excluded")
	}
	if c.IsExcluded("/home/user/docs") {
		t.Error("user path should not be excluded")
	}
}

func TestPrefixMatchingIsComponentWise(t *testing.T) {
	c := defaultClassifier()

	// /usr is a system path; /username must not match it.
	if c.IsSystemFile("/username/file.txt") {
		t.Error("/username wrongly matched the /usr prefix")
	}
	if !c.IsSystemLocation("/usr/bin/tool") {
		t.Error("/usr/bin should match the /usr prefix")
	}
}

func TestIsProgramLocation(t *testing.T) {
	c := defaultClassifier()

	if !c.IsProgramLocation(`C:\Program Files\App\app.dat`) {
		t.Error("Program Files path should be a program location")
	}
	if !c.IsProgramLocation("/opt/tool/bin.dat") {
		t.Error("/opt path should be a program location")
	}
	if c.IsProgramLocation("/home/user/app.dat") {
		t.Error("home path should not be a program location")
	}
}

func TestCustomLists(t *testing.T) {
	c := NewClassifier(Lists{
		CriticalPaths: []string{"/custom/critical"},
	})

	if !c.IsCritical("/custom/critical/file.txt") {
		t.Error("custom critical path not honored")
	}
	// Unset lists fall back to defaults.
	if !c.IsSystemFile("/usr/lib/misc/data") {
		t.Error("default system paths lost when overriding another list")
	}
}
