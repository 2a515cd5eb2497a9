package diffing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
)

func newDiffer() *Differ {
	return New(policy.Default())
}

func makeEntity(kind domain.EntityKind, source domain.SourceKind, props map[string]domain.Value) domain.CanonicalEntity {
	return domain.NewCanonicalEntity(kind, "subject", source, "loc", "eastus", props)
}

func storagePair(declared, live map[string]domain.Value) (domain.CanonicalEntity, domain.CanonicalEntity) {
	return makeEntity(domain.KindStorageAccount, domain.SourceDeclared, declared),
		makeEntity(domain.KindStorageAccount, domain.SourceLive, live)
}

func TestDiff_InSync(t *testing.T) {
	d := newDiffer()
	declared, live := storagePair(
		map[string]domain.Value{"account_tier": domain.Scalar("Standard"), "min_tls_version": domain.Scalar("TLS1_2")},
		map[string]domain.Value{"account_tier": domain.Scalar("standard"), "min_tls_version": domain.Scalar("TLS1_2")},
	)
	assert.Empty(t, d.Diff(declared, live))
}

func TestDiff_ChangedScalar(t *testing.T) {
	d := newDiffer()
	declared, live := storagePair(
		map[string]domain.Value{"access_tier": domain.Scalar("Hot")},
		map[string]domain.Value{"access_tier": domain.Scalar("Cool")},
	)

	diffs := d.Diff(declared, live)
	require.Len(t, diffs, 1)
	assert.Equal(t, "access_tier", diffs[0].Path)
	assert.Equal(t, domain.DiffChanged, diffs[0].Kind)
	require.NotNil(t, diffs[0].Declared)
	require.NotNil(t, diffs[0].Live)
	assert.Equal(t, `"Hot"`, diffs[0].Declared.String())
	assert.Equal(t, `"Cool"`, diffs[0].Live.String())
}

func TestDiff_OneSided(t *testing.T) {
	d := newDiffer()

	t.Run("declared only path is removed", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{"tags.env": domain.Scalar("prod")},
			map[string]domain.Value{},
		)
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, domain.DiffRemoved, diffs[0].Kind)
		assert.Nil(t, diffs[0].Live)
	})

	t.Run("live only path is added", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{},
			map[string]domain.Value{"tags.costcenter": domain.Scalar("123")},
		)
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, domain.DiffAdded, diffs[0].Kind)
		assert.Nil(t, diffs[0].Declared)
	})
}

func TestDiff_DefaultElision(t *testing.T) {
	d := newDiffer()

	t.Run("live default with no declaration is silent", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{},
			map[string]domain.Value{"min_tls_version": domain.Scalar("TLS1_2")},
		)
		assert.Empty(t, d.Diff(declared, live))
	})

	t.Run("live non-default with no declaration is changed against the default", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{},
			map[string]domain.Value{"min_tls_version": domain.Scalar("TLS1_0")},
		)
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, domain.DiffChanged, diffs[0].Kind)
		require.NotNil(t, diffs[0].Declared)
		assert.Equal(t, `"TLS1_2"`, diffs[0].Declared.String(), "absent side substituted with the provider default")
		assert.Equal(t, `"TLS1_0"`, diffs[0].Live.String())
	})

	t.Run("declared default missing from live is silent", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{"access_tier": domain.Scalar("Hot")},
			map[string]domain.Value{},
		)
		assert.Empty(t, d.Diff(declared, live))
	})
}

func TestDiff_UnresolvedPropagation(t *testing.T) {
	d := newDiffer()

	t.Run("unresolved on one side", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{"account_tier": domain.Unresolved("${var.tier}")},
			map[string]domain.Value{"account_tier": domain.Scalar("Standard")},
		)
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, domain.DiffUnresolved, diffs[0].Kind)
		assert.Contains(t, diffs[0].Detail, "${var.tier}")
	})

	t.Run("unresolved declared only never elides against defaults", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{"min_tls_version": domain.Unresolved("${var.tls}")},
			map[string]domain.Value{},
		)
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, domain.DiffUnresolved, diffs[0].Kind)
	})

	t.Run("unresolved nested in a collection", func(t *testing.T) {
		declared, live := storagePair(
			map[string]domain.Value{"network_rules.ip_rules": domain.Set(domain.Scalar("1.2.3.4"), domain.Unresolved("${var.ip}"))},
			map[string]domain.Value{"network_rules.ip_rules": domain.Set(domain.Scalar("1.2.3.4"))},
		)
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, domain.DiffUnresolved, diffs[0].Kind)
	})
}

func TestDiff_Lists(t *testing.T) {
	d := newDiffer()
	vnet := func(space ...domain.Value) domain.CanonicalEntity {
		return makeEntity(domain.KindVirtualNetwork, domain.SourceDeclared,
			map[string]domain.Value{"address_space": domain.List(space...)})
	}

	t.Run("order change is one changed diff for the whole path", func(t *testing.T) {
		declared := vnet(domain.Scalar("10.0.0.0/16"), domain.Scalar("10.1.0.0/16"))
		live := vnet(domain.Scalar("10.1.0.0/16"), domain.Scalar("10.0.0.0/16"))
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, "address_space", diffs[0].Path)
		assert.Equal(t, domain.DiffChanged, diffs[0].Kind)
		assert.Equal(t, "list elements differ", diffs[0].Detail)
	})

	t.Run("identical lists are silent", func(t *testing.T) {
		declared := vnet(domain.Scalar("10.0.0.0/16"))
		live := vnet(domain.Scalar("10.0.0.0/16"))
		assert.Empty(t, d.Diff(declared, live))
	})
}

func TestDiff_KeyedSets(t *testing.T) {
	d := newDiffer()
	rule := func(name string, priority int, access string) domain.Value {
		return domain.Object(map[string]domain.Value{
			"name":     domain.Scalar(name),
			"priority": domain.Scalar(priority),
			"access":   domain.Scalar(access),
		})
	}
	nsg := func(source domain.SourceKind, rules ...domain.Value) domain.CanonicalEntity {
		return makeEntity(domain.KindNetworkSecurityGroup, source,
			map[string]domain.Value{"security_rules": domain.Set(rules...)})
	}

	t.Run("reordered rule sets are silent", func(t *testing.T) {
		declared := nsg(domain.SourceDeclared, rule("allow-https", 100, "Allow"), rule("deny-all", 4096, "Deny"))
		live := nsg(domain.SourceLive, rule("deny-all", 4096, "Deny"), rule("allow-https", 100, "Allow"))
		assert.Empty(t, d.Diff(declared, live))
	})

	t.Run("rules pair by name and recurse field-wise", func(t *testing.T) {
		declared := nsg(domain.SourceDeclared, rule("allow-https", 100, "Allow"))
		live := nsg(domain.SourceLive, rule("allow-https", 200, "Allow"))
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 1)
		assert.Equal(t, "security_rules[allow-https].priority", diffs[0].Path)
		assert.Equal(t, domain.DiffChanged, diffs[0].Kind)
	})

	t.Run("one-sided rules report individually", func(t *testing.T) {
		declared := nsg(domain.SourceDeclared, rule("allow-https", 100, "Allow"), rule("allow-ssh", 110, "Allow"))
		live := nsg(domain.SourceLive, rule("allow-https", 100, "Allow"), rule("allow-rdp", 120, "Allow"))
		diffs := d.Diff(declared, live)
		require.Len(t, diffs, 2)
		assert.Equal(t, "security_rules[allow-rdp]", diffs[0].Path)
		assert.Equal(t, domain.DiffAdded, diffs[0].Kind)
		assert.Equal(t, "security_rules[allow-ssh]", diffs[1].Path)
		assert.Equal(t, domain.DiffRemoved, diffs[1].Kind)
	})
}

func TestDiff_TypeMismatch(t *testing.T) {
	d := newDiffer()
	declared, live := storagePair(
		map[string]domain.Value{"access_tier": domain.List(domain.Scalar("Hot"))},
		map[string]domain.Value{"access_tier": domain.Scalar("Hot")},
	)
	diffs := d.Diff(declared, live)
	require.Len(t, diffs, 1)
	assert.Equal(t, domain.DiffChanged, diffs[0].Kind)
	assert.Contains(t, diffs[0].Detail, "type mismatch")
}

func TestDiff_Deterministic(t *testing.T) {
	d := newDiffer()
	declared, live := storagePair(
		map[string]domain.Value{
			"access_tier":     domain.Scalar("Hot"),
			"account_tier":    domain.Scalar("Standard"),
			"min_tls_version": domain.Scalar("TLS1_2"),
			"tags.env":        domain.Scalar("prod"),
		},
		map[string]domain.Value{
			"access_tier":     domain.Scalar("Cool"),
			"account_tier":    domain.Scalar("Premium"),
			"min_tls_version": domain.Scalar("TLS1_0"),
			"tags.owner":      domain.Scalar("platform"),
		},
	)

	first := d.Diff(declared, live)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, d.Diff(declared, live), cmp.AllowUnexported(domain.Value{})); diff != "" {
			t.Fatalf("diff output not deterministic (-first +again):\n%s", diff)
		}
	}

	// Output is sorted by path.
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Path, first[i].Path)
	}
}
