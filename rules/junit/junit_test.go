package junit_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/providers/java"
	"github.com/oxhq/junify/rules/junit"
)

func migrate(t *testing.T, reg *engine.Registry, src string) string {
	t.Helper()
	result, err := java.New(reg).Migrate(context.Background(), "Test.java", []byte(src))
	require.NoError(t, err)
	return result.Modified
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "lifecycle annotations",
			src: `package com.example;

import org.junit.After;
import org.junit.Before;
import org.junit.Test;

public class CalculatorTest {
    @Before
    public void setUp() {}

    @After
    public void tearDown() {}

    @Test
    public void adds() {}
}
`,
			want: `package com.example;

import org.junit.jupiter.api.AfterEach;
import org.junit.jupiter.api.BeforeEach;
import org.junit.jupiter.api.Test;

public class CalculatorTest {
    @BeforeEach
    public void setUp() {}

    @AfterEach
    public void tearDown() {}

    @Test
    public void adds() {}
}
`,
		},
		{
			name: "class lifecycle and ignore",
			src: `package p;

import org.junit.AfterClass;
import org.junit.BeforeClass;
import org.junit.Ignore;

class T {
    @BeforeClass
    static void init() {}

    @AfterClass
    static void cleanup() {}

    @Ignore("flaky")
    void a() {}

    @Ignore
    void b() {}
}
`,
			want: `package p;

import org.junit.jupiter.api.AfterAll;
import org.junit.jupiter.api.BeforeAll;
import org.junit.jupiter.api.Disabled;

class T {
    @BeforeAll
    static void init() {}

    @AfterAll
    static void cleanup() {}

    @Disabled("flaky")
    void a() {}

    @Disabled
    void b() {}
}
`,
		},
		{
			name: "static assertion with message",
			src: `package p;

import org.junit.Test;
import static org.junit.Assert.assertEquals;

class T {
    @Test
    void adds() {
        assertEquals("sum", 4, 2 + 2);
        assertEquals(4, 2 + 2);
    }
}
`,
			want: `package p;

import org.junit.jupiter.api.Test;
import static org.junit.jupiter.api.Assertions.assertEquals;

class T {
    @Test
    void adds() {
        assertEquals(4, 2 + 2, "sum");
        assertEquals(4, 2 + 2);
    }
}
`,
		},
		{
			name: "qualified assertions",
			src: `package p;

import org.junit.Assert;

class T {
    void checks() {
        Assert.assertTrue("positive", 1 > 0);
        Assert.assertNull(null);
    }
}
`,
			want: `package p;

import org.junit.jupiter.api.Assertions;

class T {
    void checks() {
        Assertions.assertTrue(1 > 0, "positive");
        Assertions.assertNull(null);
    }
}
`,
		},
		{
			name: "assumptions",
			src: `package p;

import org.junit.Assume;

class T {
    void linuxOnly() {
        Assume.assumeTrue("needs linux", isLinux());
    }
}
`,
			want: `package p;

import org.junit.jupiter.api.Assumptions;

class T {
    void linuxOnly() {
        Assumptions.assumeTrue(isLinux(), "needs linux");
    }
}
`,
		},
		{
			name: "test timeout picks the coarsest exact unit",
			src: `package p;

import org.junit.Test;

class T {
    @Test(timeout = 2000)
    void slow() {}

    @Test(timeout = 1500)
    void slower() {}
}
`,
			want: `package p;

import java.util.concurrent.TimeUnit;
import org.junit.jupiter.api.Test;
import org.junit.jupiter.api.Timeout;

class T {
    @Test
    @Timeout(value = 2, unit = TimeUnit.SECONDS)
    void slow() {}

    @Test
    @Timeout(value = 1500, unit = TimeUnit.MILLISECONDS)
    void slower() {}
}
`,
		},
		{
			name: "expected exception",
			src: `package p;

import org.junit.Test;

class T {
    @Test(expected = IllegalStateException.class)
    public void fails() {
        service.run();
    }
}
`,
			want: `package p;

import org.junit.jupiter.api.Test;
import static org.junit.jupiter.api.Assertions.assertThrows;

class T {
    @Test
    public void fails() {
        assertThrows(IllegalStateException.class, () -> {
        service.run();
    });
    }
}
`,
		},
		{
			name: "mockito runner",
			src: `package p;

import org.junit.runner.RunWith;
import org.mockito.junit.MockitoJUnitRunner;

@RunWith(MockitoJUnitRunner.class)
public class ServiceTest {
}
`,
			want: `package p;

import org.junit.jupiter.api.extension.ExtendWith;
import org.mockito.junit.jupiter.MockitoExtension;

@ExtendWith(MockitoExtension.class)
public class ServiceTest {
}
`,
		},
		{
			name: "suite",
			src: `package p;

import org.junit.runner.RunWith;
import org.junit.runners.Suite;

@RunWith(Suite.class)
@Suite.SuiteClasses({FirstTest.class, SecondTest.class})
public class AllTests {
}
`,
			want: `package p;

import org.junit.platform.suite.api.SelectClasses;
import org.junit.platform.suite.api.Suite;

@Suite
@SelectClasses({FirstTest.class, SecondTest.class})
public class AllTests {
}
`,
		},
		{
			name: "timeout rule",
			src: `package p;

import org.junit.Rule;
import org.junit.Test;
import org.junit.rules.Timeout;

public class SlowTest {
    @Rule
    public Timeout timeout = Timeout.seconds(10);

    @Test
    public void runs() {}
}
`,
			want: `package p;

import java.util.concurrent.TimeUnit;
import org.junit.jupiter.api.Test;
import org.junit.jupiter.api.Timeout;

@Timeout(value = 10, unit = TimeUnit.SECONDS)
public class SlowTest {

    @Test
    public void runs() {}
}
`,
		},
		{
			name: "external resource",
			src: `package p;

import org.junit.Rule;
import org.junit.rules.ExternalResource;

public class ServerTest {
    static class Server extends ExternalResource {
        @Override
        protected void before() throws Throwable {
            start();
        }

        @Override
        protected void after() {
            stop();
        }
    }

    @Rule
    public Server server = new Server();
}
`,
			want: `package p;

import org.junit.jupiter.api.extension.AfterEachCallback;
import org.junit.jupiter.api.extension.BeforeEachCallback;
import org.junit.jupiter.api.extension.ExtensionContext;
import org.junit.jupiter.api.extension.RegisterExtension;

public class ServerTest {
    static class Server implements BeforeEachCallback, AfterEachCallback {
        @Override
        public void beforeEach(ExtensionContext context) {
            start();
        }

        @Override
        public void afterEach(ExtensionContext context) {
            stop();
        }
    }

    @RegisterExtension
    public Server server = new Server();
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := migrate(t, junit.Default(), tt.src)
			assert.Equal(t, tt.want, out)

			again, err := java.New(junit.Default()).Migrate(context.Background(), "Test.java", []byte(out))
			require.NoError(t, err)
			assert.False(t, again.Changed, "second pass changed:\n%s", again.Diff)
		})
	}
}

func TestMigrateIndirectResources(t *testing.T) {
	src := `package p;

import org.junit.rules.ExternalResource;

class Base extends ExternalResource {
    @Override
    protected void before() {
        open();
    }
}

class Quiet extends Base {}

class Loud extends Base {
    @Override
    protected void after() {
        super.after();
        close();
    }
}

class Eager extends Base {
    @Override
    protected void before() {
        super.before();
        warm();
    }
}
`
	out := migrate(t, junit.Default(), src)
	assert.Contains(t, out, "class Base implements BeforeEachCallback {")
	assert.Contains(t, out, "class Quiet extends Base {}")

	// after() is not inherited from Base, so Loud needs its own callback
	assert.Contains(t, out, "class Loud extends Base implements AfterEachCallback {")
	assert.Contains(t, out, "public void afterEach(ExtensionContext context) {\n        close();\n    }")
	assert.NotContains(t, out, "super.after")

	// before() is inherited, so Eager keeps Base's callback and its super call
	assert.Contains(t, out, "class Eager extends Base {")
	assert.Contains(t, out, "public void beforeEach(ExtensionContext context) {\n        super.beforeEach(context);")

	assert.Contains(t, out, "import org.junit.jupiter.api.extension.BeforeEachCallback;")
	assert.Contains(t, out, "import org.junit.jupiter.api.extension.AfterEachCallback;")
	assert.Contains(t, out, "import org.junit.jupiter.api.extension.ExtensionContext;")
	assert.NotContains(t, out, "ExternalResource")
}

func TestMigrateKeepsImportsStillInUse(t *testing.T) {
	src := `package p;

import org.junit.Assert;
import org.junit.Test;

class T {
    @Test
    void checks() {
        Assert.assertTrue(true);
        Class<?> owner = Assert.class;
    }
}
`
	out := migrate(t, junit.Default(), src)
	assert.Contains(t, out, "Assertions.assertTrue(true);")
	assert.Contains(t, out, "import org.junit.Assert;\n")
	assert.Contains(t, out, "import org.junit.jupiter.api.Assertions;\n")
}

func TestMigrateDisabledRule(t *testing.T) {
	reg, err := junit.Default().Filter([]string{"assert"}, nil)
	require.NoError(t, err)

	src := `package p;

import org.junit.Before;
import static org.junit.Assert.assertTrue;

class T {
    @Before
    void setUp() {
        assertTrue(true);
    }
}
`
	out := migrate(t, reg, src)
	assert.Contains(t, out, "@BeforeEach")
	assert.Contains(t, out, "import static org.junit.Assert.assertTrue;")
	assert.NotContains(t, out, "Assertions")
}

func TestMigrateHeuristicMatchesWarn(t *testing.T) {
	src := `package p;

import org.junit.*;

class T {
    @Before
    void setUp() {}
}
`
	result, err := java.New(junit.Default()).Migrate(context.Background(), "T.java", []byte(src))
	require.NoError(t, err)
	assert.Contains(t, result.Modified, "@BeforeEach")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "before matched org.junit.Before by simple name")
	assert.Less(t, result.Confidence.Score, 1.0)
}

func TestMigrateSkipsUnrelatedAnnotations(t *testing.T) {
	src := `package p;

import com.acme.Before;
import org.junit.jupiter.api.Test;

class T {
    @Before
    void setUp() {}

    @Test
    void runs() {}
}
`
	result, err := java.New(junit.Default()).Migrate(context.Background(), "T.java", []byte(src))
	require.NoError(t, err)
	assert.False(t, result.Changed)
}

func TestMigrateStaticOnDemandAsserts(t *testing.T) {
	src := `package p;

import org.junit.Test;
import static org.junit.Assert.*;

class T {
    int compute() {
        return 4;
    }

    @Test
    void adds() {
        int x = compute();
        helper();
        assertEquals("sum", 4, x);
        assertTrue(x > 0);
    }
}
`
	result, err := java.New(junit.Default()).Migrate(context.Background(), "T.java", []byte(src))
	require.NoError(t, err)
	out := result.Modified

	assert.Contains(t, out, "import static org.junit.jupiter.api.Assertions.*;")
	assert.NotContains(t, out, "org.junit.Assert")
	assert.Contains(t, out, "int x = compute();\n        helper();\n")
	assert.Contains(t, out, `assertEquals(4, x, "sum");`)
	assert.Contains(t, out, "assertTrue(x > 0);")
	assert.Len(t, result.Warnings, 2)

	again, err := java.New(junit.Default()).Migrate(context.Background(), "T.java", []byte(out))
	require.NoError(t, err)
	assert.False(t, again.Changed, "second pass changed:\n%s", again.Diff)
}

func TestMigrateStaticOnDemandKeepsUnmigratedMembers(t *testing.T) {
	src := `package p;

import static org.junit.Assume.*;

class T {
    void linuxOnly() {
        assumeTrue(isLinux());
        assumeNotNull(config());
    }
}
`
	out := migrate(t, junit.Default(), src)
	assert.Contains(t, out, "import static org.junit.Assume.*;")
	assert.Contains(t, out, "import static org.junit.jupiter.api.Assumptions.*;")
	assert.Contains(t, out, "assumeNotNull(config());")
}

func TestMigrateQualifiesShadowedAssertions(t *testing.T) {
	src := `package p;

import org.assertj.core.api.Assertions;
import org.junit.Assert;

class T {
    void checks() {
        Assert.assertTrue("ready", ready());
        Assertions.assertThat(1).isEqualTo(1);
    }
}
`
	out := migrate(t, junit.Default(), src)
	assert.Contains(t, out, `org.junit.jupiter.api.Assertions.assertTrue(ready(), "ready");`)
	assert.Contains(t, out, "Assertions.assertThat(1).isEqualTo(1);")
	assert.Contains(t, out, "import org.assertj.core.api.Assertions;")
	assert.NotContains(t, out, "import org.junit.jupiter.api.Assertions;")
	assert.NotContains(t, out, "import org.junit.Assert;")
}

func TestMigrateSingleTimeoutAnnotation(t *testing.T) {
	t.Run("rule wins over class rule", func(t *testing.T) {
		src := `package p;

import org.junit.ClassRule;
import org.junit.Rule;
import org.junit.rules.Timeout;

public class SlowTest {
    @ClassRule
    public static Timeout classTimeout = Timeout.seconds(60);

    @Rule
    public Timeout timeout = Timeout.millis(500);
}
`
		out := migrate(t, junit.Default(), src)
		assert.Equal(t, 1, strings.Count(out, "@Timeout("))
		assert.Contains(t, out, "@Timeout(value = 500, unit = TimeUnit.MILLISECONDS)\npublic class SlowTest {")
		assert.NotContains(t, out, "classTimeout")
		assert.NotContains(t, out, "org.junit.rules.Timeout")
	})

	t.Run("existing annotation kept", func(t *testing.T) {
		src := `package p;

import org.junit.Rule;
import org.junit.jupiter.api.Timeout;

@Timeout(5)
public class SlowTest {
    @Rule
    public org.junit.rules.Timeout timeout = org.junit.rules.Timeout.seconds(10);
}
`
		out := migrate(t, junit.Default(), src)
		assert.Equal(t, 1, strings.Count(out, "@Timeout"))
		assert.Contains(t, out, "@Timeout(5)\npublic class SlowTest {")
		assert.NotContains(t, out, "org.junit.rules.Timeout")
		assert.NotContains(t, out, "TimeUnit")
	})
}

func TestMigrateTemporaryFolder(t *testing.T) {
	src := `package p;

import java.io.File;
import org.junit.Rule;
import org.junit.Test;
import org.junit.rules.TemporaryFolder;

public class WriterTest {
    @Rule
    public TemporaryFolder folder = new TemporaryFolder();

    @Test
    public void writes() throws Exception {
        File out = folder.newFile("out.txt");
        File dir = this.folder.newFolder("nested");
        File root = folder.getRoot();
    }
}
`
	out := migrate(t, junit.Default(), src)
	assert.Contains(t, out, "    @TempDir\n    public Path folder;\n")
	assert.Contains(t, out, `File out = Files.createFile(folder.resolve("out.txt")).toFile();`)
	assert.Contains(t, out, `File dir = Files.createDirectories(this.folder.resolve("nested")).toFile();`)
	assert.Contains(t, out, "File root = folder.toFile();")
	for _, imp := range []string{"java.nio.file.Files", "java.nio.file.Path", "org.junit.jupiter.api.io.TempDir", "org.junit.jupiter.api.Test"} {
		assert.Contains(t, out, "import "+imp+";")
	}
	assert.NotContains(t, out, "TemporaryFolder")
	assert.NotContains(t, out, "org.junit.Rule")
}

func TestMigrateTemporaryFolderUnknownUse(t *testing.T) {
	src := `package p;

import org.junit.Rule;
import org.junit.rules.TemporaryFolder;

public class WriterTest {
    @Rule
    public TemporaryFolder folder = new TemporaryFolder();

    void writes() {
        helper(folder);
    }
}
`
	result, err := java.New(junit.Default()).Migrate(context.Background(), "T.java", []byte(src))
	require.NoError(t, err)
	assert.False(t, result.Changed)
}

func TestMigrateTestName(t *testing.T) {
	src := `package p;

import org.junit.Rule;
import org.junit.Test;
import org.junit.rules.TestName;

public class NameTest {
    @Rule
    public TestName name = new TestName();

    @Test
    public void logs() {
        System.out.println(name.getMethodName());
    }
}
`
	out := migrate(t, junit.Default(), src)
	assert.Contains(t, out, `public class NameTest {
    public String name;

    @BeforeEach
    void initTestName(TestInfo testInfo) {
        this.name = testInfo.getTestMethod().get().getName();
    }

    @Test
    public void logs() {
        System.out.println(name);
    }
}
`)
	assert.Contains(t, out, "import org.junit.jupiter.api.BeforeEach;")
	assert.Contains(t, out, "import org.junit.jupiter.api.TestInfo;")
	assert.NotContains(t, out, "org.junit.rules.TestName")
	assert.NotContains(t, out, "import org.junit.Rule;")
}

func TestRules(t *testing.T) {
	rules := junit.Rules()
	require.Len(t, rules, 19)

	seen := make(map[string]bool)
	for _, r := range rules {
		assert.False(t, seen[r.Name()], "duplicate rule %s", r.Name())
		seen[r.Name()] = true
		before, after := r.Preview()
		assert.NotEmpty(t, before, r.Name())
		assert.NotEmpty(t, after, r.Name())
		assert.NotEqual(t, before, after, r.Name())
	}

	// narrower @Test rules come before the generic one
	names := make([]string, 0, len(rules))
	for _, r := range junit.Default().Rules() {
		names = append(names, r.Name())
	}
	assert.Less(t, indexOf(names, "test-timeout"), indexOf(names, "test"))
	assert.Less(t, indexOf(names, "test-expected"), indexOf(names, "test"))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
