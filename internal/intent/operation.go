// Package intent maps free-form user input onto workflow operations.
package intent

// Operation is a workflow operation id. The set is closed; ids the system
// does not know parse to Unknown.
type Operation int

const (
	Unknown Operation = iota
	Chat
	RegenerateSpec
	CompleteSpec
	RunChecklist
	RunTech
	RunAutotest
	RunAutotestScripts
	RunTasks
	RunImplement
	RunAnalyze
	AnswerClarification
)

var operationIDs = [...]string{
	Unknown:             "unknown",
	Chat:                "chat",
	RegenerateSpec:      "regenerate_spec",
	CompleteSpec:        "complete_spec",
	RunChecklist:        "run_checklist",
	RunTech:             "run_tech",
	RunAutotest:         "run_autotest",
	RunAutotestScripts:  "run_autotest_scripts",
	RunTasks:            "run_tasks",
	RunImplement:        "run_implement",
	RunAnalyze:          "run_analyze",
	AnswerClarification: "answer_clarification",
}

func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationIDs) {
		return operationIDs[Unknown]
	}
	return operationIDs[o]
}

// Parse returns the operation with the given id, or Unknown.
func Parse(id string) Operation {
	for i, s := range operationIDs {
		if s == id && Operation(i) != Unknown {
			return Operation(i)
		}
	}
	return Unknown
}
