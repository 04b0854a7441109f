// ABOUTME: Fixed label templates for content types and taxonomies.
// ABOUTME: Every label key is generated from the derived names and can be overridden per key.

package names

import "strings"

// Labels maps a label key (e.g. "add_new_item") to its display text.
type Labels map[string]string

type labelTemplate struct {
	key  string
	text string
}

// Placeholders: {singular} {plural} {singular_lower} {plural_lower}.
var contentTypeTemplates = []labelTemplate{
	{"name", "{plural}"},
	{"singular_name", "{singular}"},
	{"menu_name", "{plural}"},
	{"name_admin_bar", "{singular}"},
	{"add_new", "Add New"},
	{"add_new_item", "Add New {singular}"},
	{"edit_item", "Edit {singular}"},
	{"new_item", "New {singular}"},
	{"view_item", "View {singular}"},
	{"search_items", "Search {plural}"},
	{"not_found", "No {plural_lower} found."},
	{"not_found_in_trash", "No {plural_lower} found in trash."},
	{"parent_item_colon", "Parent {singular}:"},
	{"all_items", "All {plural}"},
	{"archives", "{singular} Archives"},
	{"insert_into_item", "Insert into {singular_lower}"},
	{"uploaded_to_this_item", "Uploaded to this {singular_lower}"},
	{"filter_items_list", "Filter {plural_lower} list"},
	{"items_list_navigation", "{plural} list navigation"},
	{"items_list", "{plural} list"},
}

var taxonomyTemplates = []labelTemplate{
	{"menu_name", "{plural}"},
	{"name", "{plural}"},
	{"singular_name", "{singular}"},
	{"search_items", "Search {plural}"},
	{"popular_items", "Popular {plural}"},
	{"all_items", "All {plural}"},
	{"parent_item", "Parent {singular}"},
	{"parent_item_colon", "Parent {singular}:"},
	{"edit_item", "Edit {singular}"},
	{"view_item", "View {singular}"},
	{"update_item", "Update {singular}"},
	{"add_new_item", "Add New {singular}"},
	{"new_item_name", "New {singular} Name"},
	{"separate_items_with_commas", "Separate {plural_lower} with commas"},
	{"add_or_remove_items", "Add or remove {plural_lower}"},
	{"choose_from_most_used", "Choose from most used {plural_lower}"},
	{"not_found", "No {plural_lower} found"},
	{"no_terms", "No {plural_lower}"},
	{"items_list_navigation", "{plural} list navigation"},
	{"items_list", "{plural} list"},
	{"no_item", "No {singular_lower}"},
}

// ContentTypeLabelKeys lists the label keys every content type carries.
var ContentTypeLabelKeys = templateKeys(contentTypeTemplates)

// TaxonomyLabelKeys lists the label keys every taxonomy carries.
var TaxonomyLabelKeys = templateKeys(taxonomyTemplates)

// FeaturedImageLabelKeys are added to a content type when it names its featured image.
var FeaturedImageLabelKeys = []string{"featured_image", "set_featured_image", "remove_featured_image", "use_featured_image"}

func templateKeys(tmpls []labelTemplate) []string {
	keys := make([]string, len(tmpls))
	for i, t := range tmpls {
		keys[i] = t.key
	}
	return keys
}

func (n Names) replacer() *strings.Replacer {
	return strings.NewReplacer(
		"{singular_lower}", n.SingularLower,
		"{plural_lower}", n.PluralLower,
		"{singular}", n.Singular,
		"{plural}", n.Plural,
	)
}

func build(n Names, tmpls []labelTemplate) Labels {
	r := n.replacer()
	labels := make(Labels, len(tmpls)+len(FeaturedImageLabelKeys))
	for _, t := range tmpls {
		labels[t.key] = r.Replace(t.text)
	}
	return labels
}

// ContentTypeLabels builds the full content type label set. featuredImage is
// the display name of the featured image ("Cover Photo"); empty skips those labels.
func ContentTypeLabels(n Names, featuredImage string) Labels {
	labels := build(n, contentTypeTemplates)
	if featuredImage != "" {
		lower := strings.ToLower(featuredImage)
		labels["featured_image"] = featuredImage
		labels["set_featured_image"] = "Set " + lower
		labels["remove_featured_image"] = "Remove " + lower
		labels["use_featured_image"] = "Use as " + lower
	}
	return labels
}

// TaxonomyLabels builds the full taxonomy label set.
func TaxonomyLabels(n Names) Labels {
	return build(n, taxonomyTemplates)
}

// Merge returns a new label set: base with every key present in over replacing
// the base value. Neither input is modified.
func Merge(base Labels, over map[string]string) Labels {
	out := make(Labels, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Clone returns a copy of l.
func (l Labels) Clone() Labels {
	return Merge(l, nil)
}

// Missing returns the keys from want that l does not define.
func (l Labels) Missing(want []string) []string {
	var missing []string
	for _, k := range want {
		if _, ok := l[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
