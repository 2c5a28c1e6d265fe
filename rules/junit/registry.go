package junit

import "github.com/oxhq/junify/engine"

// Rules returns every JUnit 4 to JUnit 5 rule in precedence order. Rules
// that narrow a shared trigger, such as @Test with arguments, come before
// the generic rule for the same annotation.
func Rules() []engine.Rule {
	return []engine.Rule{
		beforeRule(),
		afterRule(),
		beforeClassRule(),
		afterClassRule(),
		testTimeoutRule(),
		testExpectedRule(),
		testRule(),
		ignoreRule(),
		runWithSuiteRule(),
		suiteClassesRule(),
		runWithMockitoRule(),
		runWithSpringRule(),
		assertRule(),
		assumeRule(),
		ruleTimeoutRule(),
		temporaryFolderRule(),
		testNameRule(),
		externalResourceRule(),
		ruleExtensionRule(),
	}
}

// Default returns a registry holding Rules
func Default() *engine.Registry {
	return engine.NewRegistry(Rules()...)
}
