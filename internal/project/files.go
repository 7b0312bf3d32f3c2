package project

import "speckit/internal/artifact"

// Well-known output files. Their ids equal their names.
const (
	SpecFileID      = "spec.md"
	ChecklistFileID = "checklist.md"
	TasksFileID     = "tasks.md"
	AnalysisFileID  = "analysis.md"
)

// Output folders under the root.
const (
	SpecsFolder      = "specs"
	TechFolder       = "tech-design"
	TestPlansFolder  = "test-plans"
	ManagementFolder = "project-management"
)

// Document returns the content of the output file with the given id. An
// empty document counts as missing.
func Document(files artifact.Tree, id string) (string, bool) {
	content, ok := artifact.FileContent(files, id)
	if !ok || content == "" {
		return "", false
	}
	return content, true
}

// WriteDocument files content as name (id = name) in the named output
// folder, replacing a same-named file. It returns the new tree and the
// stored file id.
func WriteDocument(files artifact.Tree, folder, name, content string) (artifact.Tree, string) {
	files, folderID := OutputFolder(files, folder)
	return artifact.UpsertFile(files, folderID, artifact.File(name, name, content))
}
