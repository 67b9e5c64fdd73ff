package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/compliance-review-api/internal/models"
)

// ErrUnknownCategory signals a category missing from the resolver table. It is
// a configuration defect, not a user error.
var ErrUnknownCategory = errors.New("unknown document category")

// DefaultCategorySpecs is the category table shipped with the service.
var DefaultCategorySpecs = []models.CategorySpec{
	{Category: models.CategoryBasicInformation, Label: "Basic information", Kind: models.CollectionSingleton},
	{Category: models.CategorySafetyAndHealth, Label: "Safety and health", Kind: models.CollectionSingleton},
	{Category: models.CategoryEnvironmental, Label: "Environmental", Kind: models.CollectionSingleton},
	{Category: models.CategoryTechnical, Label: "Technical specifications", Kind: models.CollectionSingleton},
	{Category: models.CategoryPersonnel, Label: "Personnel", Kind: models.CollectionOwnerKeyed, OwnerField: "worker_id"},
	{Category: models.CategoryVehicles, Label: "Vehicles", Kind: models.CollectionOwnerKeyed, OwnerField: "vehicle_id"},
}

// CategoryResolver maps categories to their folder collection shape and builds
// folder references from documents and folders.
type CategoryResolver struct {
	specs map[models.Category]models.CategorySpec
	order []models.Category
}

// NewCategoryResolver validates and indexes the given table.
func NewCategoryResolver(specs ...models.CategorySpec) (*CategoryResolver, error) {
	r := &CategoryResolver{specs: make(map[models.Category]models.CategorySpec, len(specs))}
	for _, spec := range specs {
		if spec.Category == "" {
			return nil, fmt.Errorf("category spec without category")
		}
		if _, dup := r.specs[spec.Category]; dup {
			return nil, fmt.Errorf("duplicate category %s", spec.Category)
		}
		switch spec.Kind {
		case models.CollectionSingleton:
			if spec.OwnerField != "" {
				return nil, fmt.Errorf("singleton category %s must not declare an owner field", spec.Category)
			}
		case models.CollectionOwnerKeyed:
			if spec.OwnerField == "" {
				return nil, fmt.Errorf("owner keyed category %s requires an owner field", spec.Category)
			}
		default:
			return nil, fmt.Errorf("category %s has unknown collection kind %q", spec.Category, spec.Kind)
		}
		if spec.Label == "" {
			spec.Label = string(spec.Category)
		}
		r.specs[spec.Category] = spec
		r.order = append(r.order, spec.Category)
	}
	return r, nil
}

// DefaultCategoryResolver returns the resolver for DefaultCategorySpecs.
func DefaultCategoryResolver() *CategoryResolver {
	r, err := NewCategoryResolver(DefaultCategorySpecs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the spec of category.
func (r *CategoryResolver) Resolve(category models.Category) (models.CategorySpec, error) {
	spec, ok := r.specs[category]
	if !ok {
		return models.CategorySpec{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return spec, nil
}

// Label returns the human label of category, falling back to the raw value.
func (r *CategoryResolver) Label(category models.Category) string {
	if spec, ok := r.specs[category]; ok {
		return spec.Label
	}
	return string(category)
}

// Specs lists the table in declaration order.
func (r *CategoryResolver) Specs() []models.CategorySpec {
	out := make([]models.CategorySpec, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.specs[c])
	}
	return out
}

// RefFor builds the reference of the folder a document must live in.
func (r *CategoryResolver) RefFor(doc *models.Document) (models.FolderRef, error) {
	return r.ref(doc.StartupFolderID, doc.Category, doc.OwnerKey, "document "+doc.ID)
}

// RefForFolder builds the reference a folder row is addressed by.
func (r *CategoryResolver) RefForFolder(folder *models.Folder) (models.FolderRef, error) {
	return r.ref(folder.StartupFolderID, folder.Category, folder.OwnerKey, "folder "+folder.ID)
}

func (r *CategoryResolver) ref(startupFolderID string, category models.Category, ownerKey *string, subject string) (models.FolderRef, error) {
	spec, err := r.Resolve(category)
	if err != nil {
		return models.FolderRef{}, err
	}
	switch spec.Kind {
	case models.CollectionOwnerKeyed:
		if ownerKey == nil || *ownerKey == "" {
			return models.FolderRef{}, fmt.Errorf("%s in %s has no %s", subject, category, spec.OwnerField)
		}
		return models.OwnerKeyedRef(startupFolderID, category, *ownerKey), nil
	default:
		if ownerKey != nil {
			return models.FolderRef{}, fmt.Errorf("%s in singleton category %s carries an owner key", subject, category)
		}
		return models.SingletonRef(startupFolderID, category), nil
	}
}
