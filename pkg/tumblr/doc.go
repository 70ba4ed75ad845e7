// Package tumblr is a small client for the parts of the Tumblr v2 API that
// ninlil needs: listing a blog's posts by type and deleting posts.
//
// It also holds the pure pieces of the archive pipeline that only depend on
// API data: DateRange filtering and ChooseURL, which picks the best
// resolution variant of a photo.
package tumblr
