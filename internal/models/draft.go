package models

// Draft is a partial record handed to create and update.
// A nil field is absent: update keeps the prior value, create applies the
// default. id and createdAt are never part of a draft.
type Draft struct {
	ShopName     *string   `json:"shopName,omitempty"`
	MoldName     *string   `json:"moldName,omitempty"`
	SquishDate   *string   `json:"squishDate,omitempty"`
	RecordDate   *string   `json:"recordDate,omitempty"`
	ImagesBefore *[]string `json:"imagesBefore,omitempty"`
	ImagesDuring *[]string `json:"imagesDuring,omitempty"`
	ImagesAfter  *[]string `json:"imagesAfter,omitempty"`
	Rating       *int      `json:"rating,omitempty"`
	Weight       *string   `json:"weight,omitempty"`
	Price        *string   `json:"price,omitempty"`
	Texture      *string   `json:"texture,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Strings returns a pointer to a copy of the given list.
func Strings(s ...string) *[]string {
	out := make([]string, len(s))
	copy(out, s)
	return &out
}

// ApplyTo merges the draft's present fields over r.
func (d Draft) ApplyTo(r *Record) {
	if d.ShopName != nil {
		r.ShopName = *d.ShopName
	}
	if d.MoldName != nil {
		r.MoldName = *d.MoldName
	}
	if d.SquishDate != nil {
		r.SquishDate = *d.SquishDate
	}
	if d.RecordDate != nil {
		r.RecordDate = *d.RecordDate
	}
	if d.ImagesBefore != nil {
		r.ImagesBefore = cloneStrings(*d.ImagesBefore)
	}
	if d.ImagesDuring != nil {
		r.ImagesDuring = cloneStrings(*d.ImagesDuring)
	}
	if d.ImagesAfter != nil {
		r.ImagesAfter = cloneStrings(*d.ImagesAfter)
	}
	if d.Rating != nil {
		v := *d.Rating
		r.Rating = &v
	}
	if d.Weight != nil {
		r.Weight = *d.Weight
	}
	if d.Price != nil {
		r.Price = *d.Price
	}
	if d.Texture != nil {
		r.Texture = *d.Texture
	}
	if d.Notes != nil {
		r.Notes = *d.Notes
	}
	r.Normalize()
}

// DraftFrom returns a draft carrying every field of r.
func DraftFrom(r Record) Draft {
	d := Draft{
		ShopName:     String(r.ShopName),
		MoldName:     String(r.MoldName),
		SquishDate:   String(r.SquishDate),
		RecordDate:   String(r.RecordDate),
		ImagesBefore: Strings(r.ImagesBefore...),
		ImagesDuring: Strings(r.ImagesDuring...),
		ImagesAfter:  Strings(r.ImagesAfter...),
		Weight:       String(r.Weight),
		Price:        String(r.Price),
		Texture:      String(r.Texture),
		Notes:        String(r.Notes),
	}
	if r.Rating != nil {
		d.Rating = Int(*r.Rating)
	}
	return d
}
