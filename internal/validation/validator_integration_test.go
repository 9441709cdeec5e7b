package validation

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/multilingual-news-api/internal/models"
)

func testdataPath(t *testing.T, filename string) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	path := filepath.Join(projectRoot, "testdata", filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("testdata file not found: %s", path)
	}
	return path
}

func TestValidateArticle_SampleNDJSON(t *testing.T) {
	file, err := os.Open(testdataPath(t, "articles_sample.ndjson"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	validator := NewValidator(RequireEnglish)
	scanner := bufio.NewScanner(file)
	failedFields := map[int][]string{}
	lineNum := 0
	valid := 0

	for scanner.Scan() {
		lineNum++
		var in models.ArticleInput
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", lineNum, err)
		}

		errs := validator.ValidateArticle(&in, lineNum)
		if len(errs) == 0 {
			validator.AddArticleSlug(in.Slug)
			valid++
			continue
		}
		for _, e := range errs {
			failedFields[lineNum] = append(failedFields[lineNum], e.Field)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if valid != 2 {
		t.Errorf("Expected 2 valid lines, got %d (failures: %v)", valid, failedFields)
	}

	want := map[int][]string{
		3: {"slug"},
		4: {"body", "publish_date", "title"},
		5: {"slug"},
		6: {"tags"},
	}
	for line, fields := range want {
		got := failedFields[line]
		if len(got) != len(fields) {
			t.Errorf("line %d: expected fields %v, got %v", line, fields, got)
			continue
		}
		for i := range fields {
			if got[i] != fields[i] {
				t.Errorf("line %d: expected fields %v, got %v", line, fields, got)
				break
			}
		}
	}
}
