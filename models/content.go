package models

import "time"

type Category struct {
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryTranslation struct {
	CategoryID  int64  `json:"category_id"`
	Lang        string `json:"lang" binding:"required,min=2,max=10"`
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"required,max=255"`
	Description string `json:"description"`
}

type LocalizedCategory = Localized[Category, CategoryTranslation]

type CreateCategoryRequest struct {
	ParentID     *int64                `json:"parent_id"`
	IsActive     *bool                 `json:"is_active"`
	Translations []CategoryTranslation `json:"translations" binding:"required,min=1,dive"`
}

type BlogPost struct {
	ID          int64      `json:"id"`
	AuthorID    int64      `json:"author_id"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type BlogPostTranslation struct {
	PostID  int64  `json:"post_id"`
	Lang    string `json:"lang" binding:"required,min=2,max=10"`
	Title   string `json:"title" binding:"required,max=255"`
	Slug    string `json:"slug" binding:"required,max=255"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
}

type LocalizedBlogPost = Localized[BlogPost, BlogPostTranslation]

type CreateBlogPostRequest struct {
	AuthorID     int64                 `json:"author_id" binding:"required,gt=0"`
	CategoryID   *int64                `json:"category_id"`
	IsPublished  bool                  `json:"is_published"`
	Translations []BlogPostTranslation `json:"translations" binding:"required,min=1,dive"`
}
