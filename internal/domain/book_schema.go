package domain

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bookSchemaJSON describes the structural shape of a Book document. Date
// validity is checked separately by ParseDate.
const bookSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "author", "published"],
  "properties": {
    "name":      {"type": "string"},
    "author":    {"type": "string"},
    "published": {"type": "string"}
  }
}`

var bookSchema = sync.OnceValue(func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("book.json", strings.NewReader(bookSchemaJSON)); err != nil {
		panic("domain: add book schema: " + err.Error())
	}
	return compiler.MustCompile("book.json")
})
