package taskapi

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const taskSchemaURL = "taskboard://schema/task.json"

const taskSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "completed"],
  "properties": {
    "id": {"type": ["string", "integer"], "minLength": 1},
    "title": {"type": "string"},
    "completed": {"type": "boolean"}
  }
}`

const taskListSchemaURL = "taskboard://schema/tasks.json"

const taskListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"$ref": "task.json"}
}`

// schemas holds the compiled response contracts.
type schemas struct {
	task *jsonschema.Schema
	list *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	if err := compiler.AddResource(taskSchemaURL, strings.NewReader(taskSchema)); err != nil {
		return nil, fmt.Errorf("add task schema: %w", err)
	}
	if err := compiler.AddResource(taskListSchemaURL, strings.NewReader(taskListSchema)); err != nil {
		return nil, fmt.Errorf("add task list schema: %w", err)
	}

	task, err := compiler.Compile(taskSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile task schema: %w", err)
	}
	list, err := compiler.Compile(taskListSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile task list schema: %w", err)
	}

	return &schemas{task: task, list: list}, nil
}
