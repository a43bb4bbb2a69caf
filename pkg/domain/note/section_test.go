package note

import (
	"strings"
	"testing"
)

const (
	testTitle   = "# 2025年08月25日(月)"
	testHeading = "## 📊 Fitbitデータ"
)

func testSection(marker string) string {
	return testHeading + " (2025-08-25)\n\n| 🚶‍♂️ 歩数 | " + marker + " | 歩 |"
}

func TestMergeNewDocument(t *testing.T) {
	got := Merge("", testTitle, testHeading, testSection("100"))

	want := testTitle + "\n\n" + testSection("100") + "\n"
	if got != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}
}

func TestMergeAppendWhenSectionAbsent(t *testing.T) {
	existing := "# My Day\n\nSome journaling.\n"

	got := Merge(existing, testTitle, testHeading, testSection("100"))

	if !strings.HasPrefix(got, "# My Day\n\nSome journaling.\n\n") {
		t.Errorf("existing content not preserved at top:\n%s", got)
	}
	if !strings.Contains(got, testSection("100")) {
		t.Errorf("section not appended:\n%s", got)
	}
}

func TestMergeReplacesOnlyManagedSection(t *testing.T) {
	existing := strings.Join([]string{
		"# My Day",
		"",
		"Morning thoughts.",
		"",
		testSection("100"),
		"",
		"## Evening",
		"",
		"Dinner with friends.",
	}, "\n") + "\n"

	got := Merge(existing, testTitle, testHeading, testSection("200"))

	if !strings.Contains(got, "Morning thoughts.") {
		t.Error("content before the managed section was lost")
	}
	if !strings.Contains(got, "## Evening\n\nDinner with friends.") {
		t.Errorf("content after the managed section was lost:\n%s", got)
	}
	if !strings.Contains(got, "| 🚶‍♂️ 歩数 | 200 | 歩 |") {
		t.Error("managed section was not replaced")
	}
	if strings.Contains(got, "| 🚶‍♂️ 歩数 | 100 | 歩 |") {
		t.Error("stale managed section still present")
	}
}

func TestMergeIdempotent(t *testing.T) {
	existing := strings.Join([]string{
		"# My Day",
		"",
		testSection("100"),
		"",
		"## Evening",
		"",
		"Notes.",
	}, "\n") + "\n"

	once := Merge(existing, testTitle, testHeading, testSection("100"))
	twice := Merge(once, testTitle, testHeading, testSection("100"))

	if once != twice {
		t.Errorf("Merge() is not idempotent:\nfirst:  %q\nsecond: %q", once, twice)
	}
}

func TestMergeSectionAtEndOfFile(t *testing.T) {
	existing := "# My Day\n\n" + testSection("100") + "\n"

	got := Merge(existing, testTitle, testHeading, testSection("300"))

	if !strings.Contains(got, "| 🚶‍♂️ 歩数 | 300 | 歩 |") {
		t.Error("managed section was not replaced")
	}
	if !strings.HasSuffix(got, "\n") || strings.HasSuffix(got, "\n\n") {
		t.Errorf("document should end with exactly one newline: %q", got)
	}
}
