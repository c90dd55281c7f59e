package services

import (
	"time"

	"github.com/vsinha/captable/pkg/domain/entities"
)

// ShareClassRegistry is the present-state view of every share class as of a
// date. It is rebuilt from the log on every call and never shared.
type ShareClassRegistry struct {
	classes map[string]entities.ShareClass
	order   []string
}

// BuildShareClassRegistry folds class declarations and amendments dated on or
// before asOf. Founding seeds classes, a financing round inserts its new class,
// and an amendment patches an existing class; amendments of unknown classes are
// ignored. Classes are never removed.
func BuildShareClassRegistry(transactions []entities.Transaction, asOf time.Time) *ShareClassRegistry {
	r := &ShareClassRegistry{classes: make(map[string]entities.ShareClass)}

	for _, tx := range ReplayOrder(transactions, asOf, "") {
		switch tx.Type {
		case entities.FoundingType:
			if tx.Founding == nil {
				continue
			}
			for _, sc := range tx.Founding.ShareClasses {
				r.put(sc)
			}
		case entities.FinancingRoundType:
			if tx.FinancingRound == nil {
				continue
			}
			r.put(tx.FinancingRound.NewShareClass)
		case entities.UpdateShareClassType:
			if tx.ShareClassUpdate == nil {
				continue
			}
			current, ok := r.classes[tx.ShareClassUpdate.ShareClassID]
			if !ok {
				continue
			}
			r.classes[current.ID] = current.Apply(tx.ShareClassUpdate.Patch)
		case entities.ConvertibleLoanType, entities.EqualizationPurchaseType,
			entities.ShareTransferType, entities.DebtInstrumentType:
			// no share-class effect
		}
	}

	return r
}

func (r *ShareClassRegistry) put(sc entities.ShareClass) {
	if _, exists := r.classes[sc.ID]; !exists {
		r.order = append(r.order, sc.ID)
	}
	r.classes[sc.ID] = sc
}

// Get returns the class with the given id
func (r *ShareClassRegistry) Get(id string) (entities.ShareClass, bool) {
	sc, ok := r.classes[id]
	return sc, ok
}

// Len returns the number of known classes
func (r *ShareClassRegistry) Len() int {
	return len(r.order)
}

// Ordered returns the classes in the order they were first declared
func (r *ShareClassRegistry) Ordered() []entities.ShareClass {
	out := make([]entities.ShareClass, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.classes[id])
	}
	return out
}

// Map returns a copy of the registry keyed by class id
func (r *ShareClassRegistry) Map() map[string]entities.ShareClass {
	out := make(map[string]entities.ShareClass, len(r.classes))
	for id, sc := range r.classes {
		out[id] = sc
	}
	return out
}

// ShareClassesAsOf returns the share classes in force on asOf keyed by id
func ShareClassesAsOf(transactions []entities.Transaction, asOf time.Time) map[string]entities.ShareClass {
	return BuildShareClassRegistry(transactions, asOf).Map()
}
