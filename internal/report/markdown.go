package report

import (
	"fmt"
	"strings"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/resolver"
	"github.com/brightai/refcheck/internal/resources"
	"github.com/brightai/refcheck/internal/rewrite"
)

// TopFilesLimit caps the "most affected files" tables.
const TopFilesLimit = 25

const emptyCell = "—"

type mdBuilder struct {
	b strings.Builder
}

func (m *mdBuilder) line(format string, args ...interface{}) {
	fmt.Fprintf(&m.b, format, args...)
	m.b.WriteByte('\n')
}

func (m *mdBuilder) blank() { m.b.WriteByte('\n') }

func (m *mdBuilder) String() string { return m.b.String() }

// escapeCell escapes pipes so a value cannot break a table row.
func escapeCell(v string) string {
	return strings.ReplaceAll(v, "|", `\|`)
}

func orEmpty(v string) string {
	if v == "" {
		return emptyCell
	}
	return v
}

func describeReason(reason string) string {
	if reason == "" {
		return emptyCell
	}
	return resolver.Reason(reason).Describe()
}

// LinksMarkdown renders an internal-links audit.
func LinksMarkdown(r *check.Report, title string) string {
	var m mdBuilder
	m.line("# %s", title)
	m.blank()
	m.line("- تاريخ التقرير: %s", r.GeneratedAt)
	m.line("- عدد الملفات المفحوصة: %d", r.FilesScanned)
	m.line("- إجمالي المراجع المكتشفة: %d", r.ReferencesScanned)
	m.line("- المراجع الداخلية المفحوصة: %d", r.InternalReferences)
	m.line("- الروابط/المسارات المكسورة: %d", r.BrokenReferences)
	m.line("- المكسور القابل للإصلاح التلقائي: %d", r.FixableBrokenReferences)
	m.line("- فرص توحيد نمط الروابط: %d", r.NormalizationCandidates)
	m.blank()

	m.line("## الملفات الأعلى أعطالًا")
	m.blank()
	if len(r.TopBrokenFiles) == 0 {
		m.line("- لا توجد ملفات تحتوي على روابط مكسورة.")
	} else {
		m.line("| الملف | عدد الأعطال |")
		m.line("| --- | ---: |")
		for _, row := range topFiles(r.TopBrokenFiles) {
			m.line("| %s | %d |", escapeCell(row.File), row.Count)
		}
	}
	m.blank()

	m.line("## تفاصيل الأعطال")
	m.blank()
	if len(r.BrokenRows) == 0 {
		m.line("- لا توجد روابط مكسورة.")
	} else {
		m.line("| الملف | السطر | النوع | المرجع | الاقتراح | السبب |")
		m.line("| --- | ---: | --- | --- | --- | --- |")
		for _, row := range r.BrokenRows {
			m.line("| %s | %d | %s | %s | %s | %s |",
				escapeCell(row.File), row.Line, escapeCell(row.PatternType), escapeCell(row.Reference),
				escapeCell(orEmpty(row.Suggestion)), escapeCell(describeReason(row.Reason)))
		}
	}
	m.blank()
	return m.String()
}

// ResourcesMarkdown renders a resource-paths audit.
func ResourcesMarkdown(r *resources.Report, title string) string {
	var m mdBuilder
	m.line("# %s", title)
	m.blank()
	m.line("- تاريخ التقرير: %s", r.GeneratedAt)
	m.line("- عدد الملفات المفحوصة: %d", r.FilesScanned)
	m.line("- إجمالي مراجع JS/CSS: %d", r.ResourcesScanned)
	m.line("- المراجع المحلية المفحوصة: %d", r.LocalResources)
	m.line("- المسارات المكسورة: %d", r.BrokenResources)
	m.line("- المسارات القابلة للإصلاح التلقائي: %d", r.FixableBrokenResources)
	m.line("- التحميلات المكررة داخل الصفحة: %d", r.DuplicateResources)
	m.line("- فرص توحيد المسارات: %d", r.NormalizationCandidates)
	m.blank()

	m.line("## الملفات الأعلى تكرارًا")
	m.blank()
	if len(r.TopDuplicateFiles) == 0 {
		m.line("- لا يوجد تكرار موارد.")
	} else {
		m.line("| الملف | عدد التكرارات |")
		m.line("| --- | ---: |")
		for _, row := range topFiles(r.TopDuplicateFiles) {
			m.line("| %s | %d |", escapeCell(row.File), row.Count)
		}
	}
	m.blank()

	m.line("## تفاصيل المسارات المكسورة")
	m.blank()
	if len(r.BrokenRows) == 0 {
		m.line("- لا توجد مسارات مكسورة.")
	} else {
		m.line("| الملف | السطر | النوع | المسار | الاقتراح | السبب |")
		m.line("| --- | ---: | --- | --- | --- | --- |")
		for _, row := range r.BrokenRows {
			m.line("| %s | %d | %s | %s | %s | %s |",
				escapeCell(row.File), row.Line, escapeCell(string(row.Kind)), escapeCell(row.Reference),
				escapeCell(orEmpty(row.Suggestion)), escapeCell(describeReason(row.Reason)))
		}
	}
	m.blank()

	m.line("## تفاصيل التكرارات")
	m.blank()
	if len(r.DuplicateRows) == 0 {
		m.line("- لا توجد تحميلات مكررة.")
	} else {
		m.line("| الملف | السطر | النوع | المرجع المكرر | النسخة المعتمدة |")
		m.line("| --- | ---: | --- | --- | --- |")
		for _, row := range r.DuplicateRows {
			keeper := fmt.Sprintf("%s (line %d)", row.DuplicateOfReference, row.DuplicateOfLine)
			m.line("| %s | %d | %s | %s | %s |",
				escapeCell(row.File), row.Line, escapeCell(string(row.Kind)), escapeCell(row.Reference), escapeCell(keeper))
		}
	}
	m.blank()
	return m.String()
}

// LinksComparison renders the before/after summary of a links fix run.
func LinksComparison(o *rewrite.Outcome, generatedAt string) string {
	var m mdBuilder
	m.line("# مقارنة الروابط قبل وبعد الإصلاح")
	m.blank()
	m.line("- تاريخ التنفيذ: %s", generatedAt)
	m.line("- الروابط المكسورة قبل الإصلاح: %d", o.Before.BrokenReferences)
	m.line("- الروابط المكسورة بعد الإصلاح: %d", o.After.BrokenReferences)
	m.line("- عدد الأعطال التي تم إصلاحها: %d", o.Fixed())
	m.line("- فرص توحيد النمط قبل الإصلاح: %d", o.Before.NormalizationCandidates)
	m.line("- فرص توحيد النمط بعد الإصلاح: %d", o.After.NormalizationCandidates)
	m.line("- توحيدات النمط المنجزة: %d", o.Normalized())
	m.line("- عدد الملفات المعدلة: %d", len(o.Changes))
	m.blank()

	m.line("## الملفات المعدلة")
	m.blank()
	if len(o.Changes) == 0 {
		m.line("- لم يتم تعديل أي ملف.")
	} else {
		m.line("| الملف | عدد التعديلات |")
		m.line("| --- | ---: |")
		for _, c := range o.Changes {
			m.line("| %s | %d |", escapeCell(c.File), c.Changes)
		}
	}
	m.blank()

	m.line("## المتبقي بعد الإصلاح")
	m.blank()
	if len(o.After.BrokenRows) == 0 {
		m.line("- لا توجد روابط مكسورة متبقية.")
	} else {
		m.line("| الملف | السطر | المرجع | الاقتراح |")
		m.line("| --- | ---: | --- | --- |")
		for _, row := range o.After.BrokenRows {
			m.line("| %s | %d | %s | %s |",
				escapeCell(row.File), row.Line, escapeCell(row.Reference), escapeCell(orEmpty(row.Suggestion)))
		}
	}
	m.blank()
	return m.String()
}

// ResourcesComparison renders the before/after summary of a resource fix run.
func ResourcesComparison(o *resources.FixOutcome, generatedAt string) string {
	before, after, res := o.Before, o.After, o.Result

	var m mdBuilder
	m.line("# تقرير مقارنة قبل/بعد إصلاح مسارات الموارد")
	m.blank()
	m.line("- تاريخ الإنشاء: %s", generatedAt)
	m.line("- الملفات المعدلة: %d", len(res.ChangedFiles))
	m.line("- وسوم التحميل المكررة المحذوفة: %d", res.DuplicateTagsRemoved)
	m.line("- المسارات المكسورة المصححة: %d", res.BrokenPathsFixed)
	m.blank()
	m.line("| المؤشر | قبل | بعد | الفرق |")
	m.line("| --- | ---: | ---: | ---: |")
	m.line("| المسارات المكسورة | %d | %d | %d |",
		before.BrokenResources, after.BrokenResources, after.BrokenResources-before.BrokenResources)
	m.line("| التحميلات المكررة | %d | %d | %d |",
		before.DuplicateResources, after.DuplicateResources, after.DuplicateResources-before.DuplicateResources)
	m.line("| فرص التوحيد | %d | %d | %d |",
		before.NormalizationCandidates, after.NormalizationCandidates, after.NormalizationCandidates-before.NormalizationCandidates)
	m.blank()

	m.line("## الملفات التي تم تعديلها")
	m.blank()
	if len(res.ChangedFiles) == 0 {
		m.line("- لا توجد ملفات احتاجت تعديل.")
	} else {
		for _, f := range res.ChangedFiles {
			m.line("- %s", f)
		}
	}
	m.blank()
	return m.String()
}

func topFiles(rows []check.FileCount) []check.FileCount {
	if len(rows) > TopFilesLimit {
		return rows[:TopFilesLimit]
	}
	return rows
}
