package tasks

const (
	// VariableSourceDirectory names the binding holding the linted package path.
	VariableSourceDirectory = "SOURCE_DIR"
	// VariableTestsPath names the binding holding the test suite path.
	VariableTestsPath = "TESTS_PATH"
	// VariableMark names the binding holding the test marker filter expression.
	VariableMark = "MARK"
	// VariablePackageName names the binding holding the published package identifier.
	VariablePackageName = "PACKAGE_NAME"

	defaultSourceDirectoryConstant = "awsbot_cli"
	defaultTestsPathConstant       = "tests"
	defaultMarkConstant            = ""
	defaultPackageNameConstant     = "awsbot-cli"

	unitTestMarkerExpressionConstant       = "-m unit"
	functionalTestMarkerExpressionConstant = "-m functional"

	// ActionCheckin names the built-in interactive commit-and-push action.
	ActionCheckin = "checkin"

	// TaskNameHelp is routed to the task listing instead of a recipe.
	TaskNameHelp = "help"
)

// DefaultVariables returns the variable defaults for the built-in catalog.
func DefaultVariables() map[string]string {
	return map[string]string{
		VariableSourceDirectory: defaultSourceDirectoryConstant,
		VariableTestsPath:       defaultTestsPathConstant,
		VariableMark:            defaultMarkConstant,
		VariablePackageName:     defaultPackageNameConstant,
	}
}

// BuiltinCatalog returns the catalog of tasks shipped with the binary.
func BuiltinCatalog() (Catalog, error) {
	return NewCatalog(builtinTaskDefinitions())
}

func builtinTaskDefinitions() []Task {
	return []Task{
		{
			Name: TaskNameHelp,
			Help: "List available tasks with their descriptions",
		},
		{
			Name:  "install",
			Help:  "Install project dependencies",
			Steps: []Step{{ScriptLine: "poetry install"}},
		},
		{
			Name:  "pylint",
			Help:  "Run pylint static analysis",
			Steps: []Step{{ScriptLine: "poetry run pylint $(SOURCE_DIR)"}},
		},
		{
			Name:  "flake8-check",
			Help:  "Run flake8 static analysis",
			Steps: []Step{{ScriptLine: "poetry run flake8 $(SOURCE_DIR)"}},
		},
		{
			Name:  "ruff-check",
			Help:  "Run ruff static analysis",
			Steps: []Step{{ScriptLine: "poetry run ruff check $(SOURCE_DIR)"}},
		},
		{
			Name:  "isort-check",
			Help:  "Verify import ordering",
			Steps: []Step{{ScriptLine: "poetry run isort --check-only $(SOURCE_DIR)"}},
		},
		{
			Name:  "black-check",
			Help:  "Verify code formatting",
			Steps: []Step{{ScriptLine: "poetry run black --check $(SOURCE_DIR)"}},
		},
		{
			Name: "lint",
			Help: "Run every linter and the formatting check",
			Steps: []Step{
				{ScriptLine: "poetry run pylint $(SOURCE_DIR)"},
				{ScriptLine: "poetry run flake8 $(SOURCE_DIR)"},
				{ScriptLine: "poetry run ruff check $(SOURCE_DIR)"},
				{ScriptLine: "poetry run isort --check-only $(SOURCE_DIR)"},
				{ScriptLine: "poetry run black --check $(SOURCE_DIR)"},
			},
		},
		{
			Name:  "test",
			Help:  "Run the test suite with coverage reporting",
			Steps: []Step{{ScriptLine: "poetry run pytest $(TESTS_PATH) $(MARK) --cov=$(SOURCE_DIR) --cov-report=term --cov-report=html"}},
		},
		{
			Name:      "unit-test",
			Help:      "Run tests tagged with the unit marker",
			DependsOn: "test",
			Variables: map[string]string{VariableMark: unitTestMarkerExpressionConstant},
		},
		{
			Name:      "function-test",
			Help:      "Run tests tagged with the functional marker",
			DependsOn: "test",
			Variables: map[string]string{VariableMark: functionalTestMarkerExpressionConstant},
		},
		{
			Name:   ActionCheckin,
			Help:   "Prompt for a commit message, then stage, commit, and push",
			Action: ActionCheckin,
		},
		{
			Name:  "install-hooks",
			Help:  "Install the pre-commit hooks",
			Steps: []Step{{ScriptLine: "poetry run pre-commit install"}},
		},
		{
			Name:  "pre-commit",
			Help:  "Run the pre-commit hooks against all files",
			Steps: []Step{{ScriptLine: "poetry run pre-commit run --all-files"}},
		},
		{
			Name:  "test-pip-install",
			Help:  "Install the published package from the staging index",
			Steps: []Step{{ScriptLine: "pip install --index-url https://test.pypi.org/simple/ --extra-index-url https://pypi.org/simple/ $(PACKAGE_NAME)"}},
		},
	}
}
