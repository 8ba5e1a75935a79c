package doctpl_test

import (
	"context"
	"fmt"
	"testing/fstest"

	"github.com/lvillar/certgen/doctpl"
)

func ExampleRepository_Load() {
	templates := fstest.MapFS{
		"completion.json": &fstest.MapFile{Data: []byte(`{
			"fields": {
				"courseName": {"size": 20},
				"completionDate": {"family": "Times-Italic"},
				"instructorName": {}
			},
			"build": {"title": "Certificate of Completion"}
		}`)},
	}

	repo := doctpl.NewRepository(templates, "")
	spec, err := repo.Load(context.Background(), "completion")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, f := range spec.Fields {
		fmt.Printf("%s: %s\n", f.Name, f.Style)
	}
	// Output:
	// courseName: Helvetica 20pt center x1
	// completionDate: Times-Italic 12pt center x1
	// instructorName: Helvetica 12pt center x1
}
