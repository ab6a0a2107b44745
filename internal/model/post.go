package model

import "time"

// AuthorSnapshot 发帖时冗余的作者展示信息，之后资料变更不回写
type AuthorSnapshot struct {
	AuthorName           string `json:"authorName"`
	AuthorDepartment     string `json:"authorDepartment,omitempty"`
	AuthorProfilePicture string `json:"authorProfilePicture,omitempty"`
	AuthorCollege        string `json:"authorCollege,omitempty"`
}

// Post 帖子，key: post:{id}
type Post struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId"`
	AuthorSnapshot
	Content                string    `json:"content"`
	Image                  string    `json:"image,omitempty"`
	IsCollegeCommunityOnly bool      `json:"isCollegeCommunityOnly"`
	Likes                  int       `json:"likes"`
	LikedBy                []string  `json:"likedBy"`
	Comments               int       `json:"comments"`
	Shares                 int       `json:"shares"`
	CreatedAt              time.Time `json:"createdAt"`
}

// LikedByUser 判断 userID 是否已点赞
func (p *Post) LikedByUser(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike 切换点赞状态，返回切换后是否为已赞。Likes 始终等于 len(LikedBy)。
func (p *Post) ToggleLike(userID string) bool {
	for i, id := range p.LikedBy {
		if id == userID {
			p.LikedBy = append(p.LikedBy[:i], p.LikedBy[i+1:]...)
			p.Likes = len(p.LikedBy)
			return false
		}
	}
	p.LikedBy = append(p.LikedBy, userID)
	p.Likes = len(p.LikedBy)
	return true
}

// Comment 评论，key: comment:{postId}:{id}
type Comment struct {
	ID                   string    `json:"id"`
	PostID               string    `json:"postId"`
	AuthorID             string    `json:"authorId"`
	AuthorName           string    `json:"authorName"`
	AuthorProfilePicture string    `json:"authorProfilePicture,omitempty"`
	Content              string    `json:"content"`
	CreatedAt            time.Time `json:"createdAt"`
}
