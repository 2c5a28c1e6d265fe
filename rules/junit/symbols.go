// Package junit holds the rules migrating JUnit 4 tests to JUnit 5.
package junit

// JUnit 4
const (
	junitTest        = "org.junit.Test"
	junitBefore      = "org.junit.Before"
	junitAfter       = "org.junit.After"
	junitBeforeClass = "org.junit.BeforeClass"
	junitAfterClass  = "org.junit.AfterClass"
	junitIgnore      = "org.junit.Ignore"
	junitAssert      = "org.junit.Assert"
	junitAssume      = "org.junit.Assume"
	junitRule        = "org.junit.Rule"
	junitClassRule   = "org.junit.ClassRule"

	junitRunWith          = "org.junit.runner.RunWith"
	junitSuite            = "org.junit.runners.Suite"
	junitSuiteClasses     = "org.junit.runners.Suite.SuiteClasses"
	junitTimeoutRule      = "org.junit.rules.Timeout"
	junitExternalResource = "org.junit.rules.ExternalResource"
	junitTemporaryFolder  = "org.junit.rules.TemporaryFolder"
	junitTestName         = "org.junit.rules.TestName"
)

// JUnit 5
const (
	jupiterTest       = "org.junit.jupiter.api.Test"
	jupiterBeforeEach = "org.junit.jupiter.api.BeforeEach"
	jupiterAfterEach  = "org.junit.jupiter.api.AfterEach"
	jupiterBeforeAll  = "org.junit.jupiter.api.BeforeAll"
	jupiterAfterAll   = "org.junit.jupiter.api.AfterAll"
	jupiterDisabled   = "org.junit.jupiter.api.Disabled"
	jupiterTimeout    = "org.junit.jupiter.api.Timeout"
	jupiterAssertions = "org.junit.jupiter.api.Assertions"
	jupiterAssume     = "org.junit.jupiter.api.Assumptions"
	jupiterTestInfo   = "org.junit.jupiter.api.TestInfo"
	jupiterTempDir    = "org.junit.jupiter.api.io.TempDir"

	jupiterExtendWith         = "org.junit.jupiter.api.extension.ExtendWith"
	jupiterRegisterExtension  = "org.junit.jupiter.api.extension.RegisterExtension"
	jupiterExtensionContext   = "org.junit.jupiter.api.extension.ExtensionContext"
	jupiterBeforeEachCallback = "org.junit.jupiter.api.extension.BeforeEachCallback"
	jupiterAfterEachCallback  = "org.junit.jupiter.api.extension.AfterEachCallback"

	platformSuite         = "org.junit.platform.suite.api.Suite"
	platformSelectClasses = "org.junit.platform.suite.api.SelectClasses"
)

// Third party
const (
	timeUnit      = "java.util.concurrent.TimeUnit"
	javaPath      = "java.nio.file.Path"
	javaFiles     = "java.nio.file.Files"
	matcherAssert = "org.hamcrest.MatcherAssert"

	mockitoRunner       = "org.mockito.junit.MockitoJUnitRunner"
	mockitoLegacyRunner = "org.mockito.runners.MockitoJUnitRunner"
	mockitoExtension    = "org.mockito.junit.jupiter.MockitoExtension"

	springRunner      = "org.springframework.test.context.junit4.SpringRunner"
	springClassRunner = "org.springframework.test.context.junit4.SpringJUnit4ClassRunner"
	springExtension   = "org.springframework.test.context.junit.jupiter.SpringExtension"
)
