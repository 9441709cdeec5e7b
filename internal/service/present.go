package service

import (
	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/sanitize"
)

// AdminView exposes every stored column of a.
func AdminView(a *models.Article) models.AdminArticle {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return models.AdminArticle{Article: a, Date: a.PublishDate}
}

// PublicView projects a for unauthenticated callers. Multilingual fields
// get their keys normalized and every body variant is sanitized. With a
// language each field is resolved to a single string.
func PublicView(a *models.Article, lang i18n.Lang) models.PublicArticle {
	view := models.PublicArticle{
		ID:       a.ID,
		Slug:     a.Slug,
		Date:     a.PublishDate,
		Category: a.Category,
		Image:    a.FeaturedImage,
		Title:    a.Title.Normalized(),
		Summary:  a.Summary.Normalized(),
		Body:     a.Body.Normalized(),
		Tags:     a.Tags,
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}

	if lang == "" {
		view.Body = view.Body.Map(sanitize.HTML)
		return view
	}

	view.Title = i18n.PlainText(view.Title.Resolve(lang))
	view.Summary = i18n.PlainText(view.Summary.Resolve(lang))
	view.Body = i18n.PlainText(sanitize.HTML(view.Body.Resolve(lang)))
	return view
}

// Present picks the admin or public projection of a.
func Present(a *models.Article, admin bool, lang i18n.Lang) interface{} {
	if admin {
		return AdminView(a)
	}
	return PublicView(a, lang)
}

// PresentList projects every article of a page.
func PresentList(articles []*models.Article, admin bool, lang i18n.Lang) interface{} {
	if admin {
		items := make([]models.AdminArticle, 0, len(articles))
		for _, a := range articles {
			items = append(items, AdminView(a))
		}
		return items
	}
	items := make([]models.PublicArticle, 0, len(articles))
	for _, a := range articles {
		items = append(items, PublicView(a, lang))
	}
	return items
}
