package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

func (s *Scanner) scanVirtualMachines(ctx context.Context, resourceGroup string) ([]domain.RawEntity, []domain.Diagnostic, error) {
	var entities []domain.RawEntity
	var diagnostics []domain.Diagnostic

	pager := s.vms.NewListPager(resourceGroup, nil)
	for pager.More() {
		if err := s.wait(ctx); err != nil {
			return nil, nil, err
		}
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CodePlatformAPIError, "failed listing virtual machines")
		}
		for _, vm := range page.Value {
			if vm == nil || vm.Name == nil {
				continue
			}
			kind, ok := virtualMachineKind(vm)
			if !ok {
				diagnostics = append(diagnostics, domain.Diagnostic{
					Code:    string(errors.CodeUnknownEntityType),
					Message: fmt.Sprintf("could not determine OS flavor for virtual machine %q, skipped", *vm.Name),
					Subject: deref(vm.ID),
				})
				continue
			}
			entities = append(entities, mapVirtualMachine(vm, kind))
		}
	}
	return entities, diagnostics, nil
}

// virtualMachineKind distinguishes Linux from Windows machines, which share
// one ARM resource type. The OS profile is authoritative; the OS disk type is
// the fallback for images without a provisioned profile.
func virtualMachineKind(vm *armcompute.VirtualMachine) (domain.EntityKind, bool) {
	if p := vm.Properties; p != nil {
		if p.OSProfile != nil {
			if p.OSProfile.LinuxConfiguration != nil {
				return domain.KindLinuxVirtualMachine, true
			}
			if p.OSProfile.WindowsConfiguration != nil {
				return domain.KindWindowsVirtualMachine, true
			}
		}
		if p.StorageProfile != nil && p.StorageProfile.OSDisk != nil && p.StorageProfile.OSDisk.OSType != nil {
			switch *p.StorageProfile.OSDisk.OSType {
			case armcompute.OperatingSystemTypesLinux:
				return domain.KindLinuxVirtualMachine, true
			case armcompute.OperatingSystemTypesWindows:
				return domain.KindWindowsVirtualMachine, true
			}
		}
	}
	return "", false
}

func mapVirtualMachine(vm *armcompute.VirtualMachine, kind domain.EntityKind) domain.RawEntity {
	props := make(map[string]any)
	setString(props, "location", vm.Location)

	if p := vm.Properties; p != nil {
		if p.HardwareProfile != nil {
			setEnum(props, "vm_size", p.HardwareProfile.VMSize)
		}

		if osp := p.OSProfile; osp != nil {
			osProfile := make(map[string]any)
			setString(osProfile, "admin_username", osp.AdminUsername)
			setString(osProfile, "computer_name", osp.ComputerName)
			if osp.LinuxConfiguration != nil {
				linuxConfig := make(map[string]any)
				setBool(linuxConfig, "disable_password_authentication", osp.LinuxConfiguration.DisablePasswordAuthentication)
				osProfile["linux_configuration"] = linuxConfig
			}
			props["os_profile"] = osProfile
		}

		if sp := p.StorageProfile; sp != nil {
			storageProfile := make(map[string]any)
			if disk := sp.OSDisk; disk != nil {
				osDisk := make(map[string]any)
				setString(osDisk, "name", disk.Name)
				setEnum(osDisk, "caching", disk.Caching)
				setInt32(osDisk, "disk_size_gb", disk.DiskSizeGB)
				if disk.ManagedDisk != nil {
					setEnum(osDisk, "storage_account_type", disk.ManagedDisk.StorageAccountType)
				}
				storageProfile["os_disk"] = osDisk
			}
			if img := sp.ImageReference; img != nil {
				imageRef := make(map[string]any)
				setString(imageRef, "publisher", img.Publisher)
				setString(imageRef, "offer", img.Offer)
				setString(imageRef, "sku", img.SKU)
				setString(imageRef, "version", img.Version)
				storageProfile["image_reference"] = imageRef
			}
			props["storage_profile"] = storageProfile
		}
	}

	if tags := tagsToMap(vm.Tags); tags != nil {
		props["tags"] = tags
	}

	return domain.RawEntity{
		Kind:       kind,
		Name:       deref(vm.Name),
		Source:     domain.SourceLive,
		Location:   deref(vm.ID),
		Region:     deref(vm.Location),
		Properties: props,
	}
}
