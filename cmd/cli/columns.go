package cli

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bacalhau-project/cryri/cmd/util/output"
	"github.com/bacalhau-project/cryri/pkg/models"
)

const createdAtFormat = "2006-01-02 15:04"

var jobColumns = []output.TableColumn[models.JobSummary]{
	{
		ColumnConfig: table.ColumnConfig{Name: "id"},
		Value:        func(j models.JobSummary) string { return j.ID },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "state"},
		Value:        func(j models.JobSummary) string { return j.State },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "instance type"},
		Value:        func(j models.JobSummary) string { return j.InstanceType },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "priority"},
		Value:        func(j models.JobSummary) string { return j.Priority.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "created"},
		Value: func(j models.JobSummary) string {
			if j.CreatedAt.IsZero() {
				return ""
			}
			return j.CreatedAt.Local().Format(createdAtFormat)
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "description", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		Value:        func(j models.JobSummary) string { return j.Description },
	},
}

var instanceTypeColumns = []output.TableColumn[models.InstanceType]{
	{
		ColumnConfig: table.ColumnConfig{Name: "name"},
		Value:        func(i models.InstanceType) string { return i.Name },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "gpu", Align: text.AlignRight},
		Value:        func(i models.InstanceType) string { return strconv.Itoa(i.GPU) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "cpu", Align: text.AlignRight},
		Value:        func(i models.InstanceType) string { return strconv.Itoa(i.CPU) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "memory", Align: text.AlignRight},
		Value:        func(i models.InstanceType) string { return i.Memory },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "description", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		Value:        func(i models.InstanceType) string { return i.Description },
	},
}
