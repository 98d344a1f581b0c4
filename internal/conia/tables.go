package conia

// Table names shared by the local schema and the remote service.
const (
	TableProjects     = "projects"
	TableSections     = "sections"
	TableTags         = "tags"
	TableTasks        = "tasks"
	TableTaskTagLinks = "task_tag_links"
)

// SyncOrder lists the syncable tables in foreign-key dependency order. A row
// may only be created or updated after its FK targets exist, so every
// cross-table pass iterates in exactly this order.
var SyncOrder = []string{
	TableProjects,
	TableSections,
	TableTags,
	TableTasks,
	TableTaskTagLinks,
}

// EnvelopeTables lists the tables that carry the replication envelope
// (id, updated_at, deleted_at, sync_status). The link table carries none of
// it: membership is a pure fact replaced wholesale during sync.
var EnvelopeTables = []string{
	TableProjects,
	TableSections,
	TableTags,
	TableTasks,
}

// KnownTable reports whether name is one of the syncable tables.
func KnownTable(name string) bool {
	for _, t := range SyncOrder {
		if t == name {
			return true
		}
	}
	return false
}
