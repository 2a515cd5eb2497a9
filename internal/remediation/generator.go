package remediation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

// Generator turns a drift report into az CLI commands: create commands for
// declared entities missing from the resource group, update commands for
// drifted properties that have a known flag mapping. Properties with
// unresolved declared values never reach a command.
type Generator struct {
	resourceGroup  string
	subscriptionID string
}

func NewGenerator(resourceGroup, subscriptionID string) *Generator {
	return &Generator{resourceGroup: resourceGroup, subscriptionID: subscriptionID}
}

type cliVerbs struct {
	create string
	update string
}

var kindVerbs = map[domain.EntityKind]cliVerbs{
	domain.KindStorageAccount:        {create: "az storage account create", update: "az storage account update"},
	domain.KindVirtualNetwork:        {create: "az network vnet create", update: "az network vnet update"},
	domain.KindSubnet:                {create: "az network vnet subnet create", update: "az network vnet subnet update"},
	domain.KindNetworkSecurityGroup:  {create: "az network nsg create", update: "az network nsg update"},
	domain.KindLinuxVirtualMachine:   {create: "az vm create", update: "az vm update"},
	domain.KindWindowsVirtualMachine: {create: "az vm create", update: "az vm update"},
	domain.KindKeyVault:              {create: "az keyvault create", update: "az keyvault update"},
}

// propertyFlags maps canonical property paths to az CLI flags, per kind.
// Paths absent here have no safe single-flag equivalent and are reported but
// never scripted.
var propertyFlags = map[domain.EntityKind]map[string]string{
	domain.KindStorageAccount: {
		"access_tier":               "--access-tier",
		"enable_https_traffic_only": "--https-only",
		"min_tls_version":           "--min-tls-version",
		"allow_blob_public_access":  "--allow-blob-public-access",
	},
	domain.KindVirtualNetwork: {
		"address_space": "--address-prefixes",
		"dns_servers":   "--dns-servers",
	},
	domain.KindLinuxVirtualMachine: {
		"vm_size": "--size",
	},
	domain.KindWindowsVirtualMachine: {
		"vm_size": "--size",
	},
	domain.KindKeyVault: {
		"sku_name":                        "--sku",
		"enabled_for_deployment":          "--enabled-for-deployment",
		"enabled_for_disk_encryption":     "--enabled-for-disk-encryption",
		"enabled_for_template_deployment": "--enabled-for-template-deployment",
	},
}

func (g *Generator) Plan(report domain.DriftReport, declared map[domain.EntityID]domain.CanonicalEntity) []domain.Command {
	var commands []domain.Command
	for _, entity := range report.Entities {
		switch entity.Status {
		case domain.StatusMissingInLive:
			if source, ok := declared[entity.ID]; ok {
				if cmd, ok := g.createCommand(source, entity.Risk); ok {
					commands = append(commands, cmd)
				}
			}
		case domain.StatusDrifted:
			if cmd, ok := g.updateCommand(entity); ok {
				commands = append(commands, cmd)
			}
		}
	}
	return commands
}

func (g *Generator) createCommand(entity domain.CanonicalEntity, risk domain.RiskLevel) (domain.Command, bool) {
	verbs, ok := kindVerbs[entity.Kind()]
	if !ok {
		return domain.Command{}, false
	}

	flags := g.baseFlags(entity.Name())
	if entity.Region() != "" {
		flags = append(flags, flagPair{"--location", entity.Region()})
	}

	mapping := propertyFlags[entity.Kind()]
	paths := make([]string, 0, len(mapping))
	for path := range mapping {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		val, exists := entity.Property(path)
		if !exists {
			continue
		}
		if rendered, renderable := renderValue(val); renderable {
			flags = append(flags, flagPair{mapping[path], rendered})
		}
	}

	flags = appendSpecialFlags(flags, entity)
	if tags := collectTags(entity); tags != "" {
		flags = append(flags, flagPair{"--tags", tags})
	}

	return domain.Command{
		Text:        buildCommandText(verbs.create, flags),
		Description: fmt.Sprintf("Create %s %q", entity.Kind(), entity.Name()),
		Action:      domain.ActionCreate,
		Entity:      entity.ID(),
		Risk:        risk,
	}, true
}

func (g *Generator) updateCommand(entity domain.EntityDrift) (domain.Command, bool) {
	verbs, ok := kindVerbs[entity.Kind]
	if !ok {
		return domain.Command{}, false
	}
	mapping := propertyFlags[entity.Kind]

	flags := g.baseFlags(entity.Name)
	base := len(flags)
	var changed []string

	for _, diff := range entity.Diffs {
		if diff.Declared == nil || diff.Kind == domain.DiffUnresolved {
			continue
		}
		flag, mapped := flagForPath(mapping, diff.Path)
		if !mapped {
			continue
		}
		if rendered, renderable := renderValue(*diff.Declared); renderable {
			flags = append(flags, flagPair{flag, rendered})
			changed = append(changed, diff.Path)
		}
	}

	if len(flags) == base {
		return domain.Command{}, false
	}

	return domain.Command{
		Text:        buildCommandText(verbs.update, flags),
		Description: fmt.Sprintf("Update %s %q: %s", entity.Kind, entity.Name, strings.Join(changed, ", ")),
		Action:      domain.ActionUpdate,
		Entity:      entity.ID,
		Risk:        entity.Risk,
	}, true
}

type flagPair struct {
	flag  string
	value string
}

func (g *Generator) baseFlags(name string) []flagPair {
	flags := []flagPair{
		{"--name", name},
		{"--resource-group", g.resourceGroup},
	}
	if g.subscriptionID != "" {
		flags = append(flags, flagPair{"--subscription", g.subscriptionID})
	}
	return flags
}

func flagForPath(mapping map[string]string, path string) (string, bool) {
	flag, ok := mapping[path]
	return flag, ok
}

// appendSpecialFlags covers parameters that combine several declared
// properties into one CLI flag.
func appendSpecialFlags(flags []flagPair, entity domain.CanonicalEntity) []flagPair {
	switch entity.Kind() {
	case domain.KindStorageAccount:
		tier := renderedOrDefault(entity, "account_tier", "Standard")
		replication := renderedOrDefault(entity, "account_replication_type", "LRS")
		if tier != "" && replication != "" {
			flags = append(flags, flagPair{"--sku", tier + "_" + replication})
		}
	case domain.KindLinuxVirtualMachine, domain.KindWindowsVirtualMachine:
		publisher := renderedOrDefault(entity, "storage_profile.image_reference.publisher", "")
		offer := renderedOrDefault(entity, "storage_profile.image_reference.offer", "")
		sku := renderedOrDefault(entity, "storage_profile.image_reference.sku", "")
		version := renderedOrDefault(entity, "storage_profile.image_reference.version", "latest")
		if publisher != "" && offer != "" && sku != "" {
			flags = append(flags, flagPair{"--image", strings.Join([]string{publisher, offer, sku, version}, ":")})
		}
		if admin := renderedOrDefault(entity, "os_profile.admin_username", ""); admin != "" {
			flags = append(flags, flagPair{"--admin-username", admin})
		}
	}
	return flags
}

func renderedOrDefault(entity domain.CanonicalEntity, path, fallback string) string {
	val, ok := entity.Property(path)
	if !ok {
		return fallback
	}
	rendered, renderable := renderValue(val)
	if !renderable {
		return fallback
	}
	return rendered
}

func collectTags(entity domain.CanonicalEntity) string {
	var pairs []string
	for _, path := range entity.Paths() {
		if !strings.HasPrefix(path, "tags.") {
			continue
		}
		val, _ := entity.Property(path)
		if rendered, ok := renderValue(val); ok {
			pairs = append(pairs, strings.TrimPrefix(path, "tags.")+"="+rendered)
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}

// renderValue formats a canonical value as a CLI argument. Unresolved values
// and values containing unresolved elements are not renderable.
func renderValue(v domain.Value) (string, bool) {
	if v.ContainsUnresolved() {
		return "", false
	}
	switch v.Kind() {
	case domain.ValueScalar:
		return renderScalar(v.ScalarValue()), true
	case domain.ValueList, domain.ValueSet:
		parts := make([]string, 0, v.Len())
		for _, e := range v.Elems() {
			rendered, ok := renderValue(e)
			if !ok {
				return "", false
			}
			parts = append(parts, rendered)
		}
		if v.Kind() == domain.ValueSet {
			sort.Strings(parts)
		}
		return strings.Join(parts, " "), true
	case domain.ValueObject:
		names := v.FieldNames()
		parts := make([]string, 0, len(names))
		for _, n := range names {
			field, _ := v.Field(n)
			rendered, ok := renderValue(field)
			if !ok {
				return "", false
			}
			parts = append(parts, n+"="+rendered)
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

func renderScalar(s any) string {
	switch val := s.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func buildCommandText(base string, flags []flagPair) string {
	parts := []string{base}
	for _, fp := range flags {
		value := fp.value
		if strings.ContainsAny(value, " \t") {
			value = `"` + value + `"`
		}
		parts = append(parts, fp.flag+" "+value)
	}
	return strings.Join(parts, " \\\n    ")
}
