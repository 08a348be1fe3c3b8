package drafts

import (
	"slices"

	"eventwizard/internal/marketplace"
)

// SelectedServicesCount is the number of selected service categories
func (d EventDraft) SelectedServicesCount() int {
	return len(d.Services)
}

// SelectedSuppliersCount is the number of selected offerings across all categories and suppliers
func (d EventDraft) SelectedSuppliersCount() int {
	count := 0
	for _, suppliers := range d.SelectedSuppliers {
		for _, offerings := range suppliers {
			count += len(offerings)
		}
	}
	return count
}

// HasService reports whether category is selected
func (d EventDraft) HasService(category string) bool {
	return slices.Contains(d.Services, category)
}

func (d EventDraft) offeringSelected(offeringID string) bool {
	for _, suppliers := range d.SelectedSuppliers {
		for _, offerings := range suppliers {
			if slices.Contains(offerings, offeringID) {
				return true
			}
		}
	}
	return false
}

// toggleService adds or removes a category. Removal cascades to the category's
// suppliers and to the packages of the offerings that go with them.
func (d *EventDraft) toggleService(category string, selected bool) {
	if selected {
		if !d.HasService(category) {
			d.Services = append(d.Services, category)
		}
		return
	}

	d.Services = slices.DeleteFunc(d.Services, func(s string) bool { return s == category })

	removed := d.SelectedSuppliers[category]
	delete(d.SelectedSuppliers, category)
	for _, offerings := range removed {
		for _, offeringID := range offerings {
			if !d.offeringSelected(offeringID) {
				delete(d.SelectedPackages, offeringID)
			}
		}
	}
}

// toggleSupplierOffering flips offeringID in SelectedSuppliers[category][supplierID],
// pruning the supplier and then the category when they become empty.
func (d *EventDraft) toggleSupplierOffering(category, supplierID, offeringID string) {
	suppliers, ok := d.SelectedSuppliers[category]
	if !ok {
		suppliers = map[string][]string{}
		d.SelectedSuppliers[category] = suppliers
	}

	offerings := suppliers[supplierID]
	if idx := slices.Index(offerings, offeringID); idx >= 0 {
		offerings = slices.Delete(slices.Clone(offerings), idx, idx+1)
	} else {
		offerings = append(slices.Clone(offerings), offeringID)
	}

	if len(offerings) == 0 {
		delete(suppliers, supplierID)
	} else {
		suppliers[supplierID] = offerings
	}
	if len(suppliers) == 0 {
		delete(d.SelectedSuppliers, category)
	}

	if !d.offeringSelected(offeringID) {
		delete(d.SelectedPackages, offeringID)
	}
}

// togglePackage selects packageID for offeringID, replacing any previous choice;
// choosing the already selected package clears it.
func (d *EventDraft) togglePackage(offeringID, packageID string, details marketplace.PackageDetails) {
	if current, ok := d.SelectedPackages[offeringID]; ok && current.PackageID == packageID {
		delete(d.SelectedPackages, offeringID)
		return
	}
	d.SelectedPackages[offeringID] = PackageSelection{
		PackageID:      packageID,
		PackageDetails: details,
	}
}
