package domain

type EntityKind string

const (
	KindStorageAccount        EntityKind = "StorageAccount"
	KindVirtualNetwork        EntityKind = "VirtualNetwork"
	KindSubnet                EntityKind = "Subnet"
	KindNetworkSecurityGroup  EntityKind = "NetworkSecurityGroup"
	KindLinuxVirtualMachine   EntityKind = "LinuxVirtualMachine"
	KindWindowsVirtualMachine EntityKind = "WindowsVirtualMachine"
	KindKeyVault              EntityKind = "KeyVault"
)

func (k EntityKind) String() string {
	return string(k)
}

// AllKinds lists every supported entity kind in report order.
func AllKinds() []EntityKind {
	return []EntityKind{
		KindStorageAccount,
		KindVirtualNetwork,
		KindSubnet,
		KindNetworkSecurityGroup,
		KindLinuxVirtualMachine,
		KindWindowsVirtualMachine,
		KindKeyVault,
	}
}

// Entity-type translation: Terraform resource type strings and Azure
// cloud-native type strings both map onto the kind enum. The tables must stay
// total over AllKinds; adding a kind means adding entries here plus a default
// table entry and a risk policy entry.
var terraformTypeToKind = map[string]EntityKind{
	"azurerm_storage_account":        KindStorageAccount,
	"azurerm_virtual_network":        KindVirtualNetwork,
	"azurerm_subnet":                 KindSubnet,
	"azurerm_network_security_group": KindNetworkSecurityGroup,
	"azurerm_linux_virtual_machine":  KindLinuxVirtualMachine,
	"azurerm_windows_virtual_machine": KindWindowsVirtualMachine,
	"azurerm_key_vault":              KindKeyVault,
}

var kindToAzureType = map[EntityKind]string{
	KindStorageAccount:        "Microsoft.Storage/storageAccounts",
	KindVirtualNetwork:        "Microsoft.Network/virtualNetworks",
	KindSubnet:                "Microsoft.Network/virtualNetworks/subnets",
	KindNetworkSecurityGroup:  "Microsoft.Network/networkSecurityGroups",
	KindLinuxVirtualMachine:   "Microsoft.Compute/virtualMachines",
	KindWindowsVirtualMachine: "Microsoft.Compute/virtualMachines",
	KindKeyVault:              "Microsoft.KeyVault/vaults",
}

var kindToTerraformType = func() map[EntityKind]string {
	m := make(map[EntityKind]string, len(terraformTypeToKind))
	for tf, k := range terraformTypeToKind {
		m[k] = tf
	}
	return m
}()

// KindForTerraformType resolves an azurerm_* resource type to its kind.
func KindForTerraformType(tfType string) (EntityKind, bool) {
	k, ok := terraformTypeToKind[tfType]
	return k, ok
}

// TerraformTypeForKind is the reverse lookup, used by the command generator.
func TerraformTypeForKind(kind EntityKind) string {
	return kindToTerraformType[kind]
}

// AzureTypeForKind returns the cloud-native type string for a kind.
func AzureTypeForKind(kind EntityKind) string {
	return kindToAzureType[kind]
}

// KindsForAzureType resolves a cloud-native type string to the kinds it may
// represent. Microsoft.Compute/virtualMachines is ambiguous between Linux and
// Windows machines; the scanner disambiguates from the OS profile.
func KindsForAzureType(azureType string) []EntityKind {
	var kinds []EntityKind
	for _, k := range AllKinds() {
		if kindToAzureType[k] == azureType {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// IsSupportedKind reports whether the kind belongs to the fixed enumerated set.
func IsSupportedKind(kind EntityKind) bool {
	_, ok := kindToAzureType[kind]
	return ok
}
