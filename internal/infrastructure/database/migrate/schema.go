package migrate

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// SubjectsColumns holds the columns for the "subjects" table.
	SubjectsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "kind", Type: field.TypeString, Nullable: true},
		{Name: "level", Type: field.TypeInt, Default: 0},
		{Name: "slug", Type: field.TypeString, Default: ""},
		{Name: "document_url", Type: field.TypeString, Default: ""},
		{Name: "data", Type: field.TypeJSON},
	}
	// SubjectsTable holds the schema information for the "subjects" table.
	SubjectsTable = &schema.Table{
		Name:       "subjects",
		Columns:    SubjectsColumns,
		PrimaryKey: []*schema.Column{SubjectsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "subject_kind", Unique: false, Columns: []*schema.Column{SubjectsColumns[1]}},
			{Name: "subject_level", Unique: false, Columns: []*schema.Column{SubjectsColumns[2]}},
		},
	}
	// AssignmentsColumns holds the columns for the "assignments" table.
	AssignmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "subject_id", Type: field.TypeInt64},
		{Name: "srs_stage", Type: field.TypeInt, Default: 0},
		{Name: "available_at", Type: field.TypeInt64, Nullable: true},
		{Name: "data", Type: field.TypeJSON},
	}
	// AssignmentsTable holds the schema information for the "assignments" table.
	AssignmentsTable = &schema.Table{
		Name:       "assignments",
		Columns:    AssignmentsColumns,
		PrimaryKey: []*schema.Column{AssignmentsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "assignment_subject_id", Unique: false, Columns: []*schema.Column{AssignmentsColumns[1]}},
			{Name: "assignment_srs_stage", Unique: false, Columns: []*schema.Column{AssignmentsColumns[2]}},
		},
	}
	// StudyMaterialsColumns holds the columns for the "study_materials" table.
	StudyMaterialsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "subject_id", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	// StudyMaterialsTable holds the schema information for the "study_materials" table.
	StudyMaterialsTable = &schema.Table{
		Name:       "study_materials",
		Columns:    StudyMaterialsColumns,
		PrimaryKey: []*schema.Column{StudyMaterialsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "studymaterial_subject_id", Unique: false, Columns: []*schema.Column{StudyMaterialsColumns[1]}},
		},
	}
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "data", Type: field.TypeJSON},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}
	// EncountersColumns holds the columns for the "encounters" table.
	EncountersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "game_id", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "ended_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	// EncountersTable holds the schema information for the "encounters" table.
	EncountersTable = &schema.Table{
		Name:       "encounters",
		Columns:    EncountersColumns,
		PrimaryKey: []*schema.Column{EncountersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "encounter_game_id", Unique: false, Columns: []*schema.Column{EncountersColumns[1]}},
			{Name: "encounter_started_at", Unique: false, Columns: []*schema.Column{EncountersColumns[2]}},
		},
	}
	// EncounterItemsColumns holds the columns for the "encounter_items" table.
	EncounterItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "session_id", Type: field.TypeString, Size: 64},
		{Name: "subject_id", Type: field.TypeInt64},
		{Name: "assignment_id", Type: field.TypeInt64, Nullable: true},
		{Name: "synced", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	// EncounterItemsTable holds the schema information for the "encounter_items" table.
	EncounterItemsTable = &schema.Table{
		Name:       "encounter_items",
		Columns:    EncounterItemsColumns,
		PrimaryKey: []*schema.Column{EncounterItemsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "encounteritem_session_id", Unique: false, Columns: []*schema.Column{EncounterItemsColumns[1]}},
			{Name: "encounteritem_subject_id", Unique: false, Columns: []*schema.Column{EncounterItemsColumns[2]}},
			{Name: "encounteritem_synced", Unique: false, Columns: []*schema.Column{EncounterItemsColumns[4]}},
			{Name: "encounteritem_created_at", Unique: false, Columns: []*schema.Column{EncounterItemsColumns[5]}},
		},
	}
	// LogsColumns holds the columns for the "logs" table.
	LogsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "level", Type: field.TypeString, Size: 16},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	// LogsTable holds the schema information for the "logs" table.
	LogsTable = &schema.Table{
		Name:       "logs",
		Columns:    LogsColumns,
		PrimaryKey: []*schema.Column{LogsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "log_created_at", Unique: false, Columns: []*schema.Column{LogsColumns[2]}},
		},
	}
	// FlagsColumns holds the columns for the "flags" table.
	FlagsColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Size: 128},
		{Name: "value", Type: field.TypeString, Size: 2147483647},
	}
	// FlagsTable holds the schema information for the "flags" table.
	FlagsTable = &schema.Table{
		Name:       "flags",
		Columns:    FlagsColumns,
		PrimaryKey: []*schema.Column{FlagsColumns[0]},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		AssignmentsTable,
		EncounterItemsTable,
		EncountersTable,
		FlagsTable,
		LogsTable,
		StudyMaterialsTable,
		SubjectsTable,
		UsersTable,
	}
)
