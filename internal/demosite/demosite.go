// Package demosite serves local copies of the demo pages the UI scenarios
// drive, so the scenarios can run without network access.
package demosite

import (
	"fmt"
	"html"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// Files are offered on the download page, by name.
var Files = map[string]string{
	"some-file.txt": "Some file contents.\n",
	"sample.txt":    "A sample text file for download tests.\n",
	"notes.txt":     "Remember to remove downloaded files.\n",
}

// maxUpload bounds the size of an uploaded form.
const maxUpload = 10 << 20

var indexPage = `<!DOCTYPE html>
<html>
<head>
	<title>UI Test Demo Site</title>
</head>
<body>
	<h1>Available Examples</h1>
	<ul>
		<li><a href="/download">File Download</a></li>
		<li><a href="/upload">File Upload</a></li>
		<li><a href="/dropdown">Dropdown</a></li>
		<li><a href="/hovers">Hovers</a></li>
		<li><a href="/entry_ad">Entry Ad</a></li>
		<li><a href="/frames">Frames</a></li>
		<li><a href="/nested_frames">Nested Frames</a></li>
	</ul>
</body>
</html>
`

var downloadPage = `<!DOCTYPE html>
<html>
<head>
	<title>File Download</title>
</head>
<body>
	<div class="example">
		<h3>File Downloader</h3>
		%s
	</div>
</body>
</html>
`

var uploadPage = `<!DOCTYPE html>
<html>
<head>
	<title>File Upload</title>
</head>
<body>
	<div class="example">
		<h3>File Uploader</h3>
		<p>Choose a file on your system and then click upload.</p>
		<form method="POST" action="/upload" enctype="multipart/form-data">
			<input id="file-upload" type="file" name="file" />
			<input id="file-submit" class="button" type="submit" value="Upload" />
		</form>
	</div>
</body>
</html>
`

var uploadedPage = `<!DOCTYPE html>
<html>
<head>
	<title>File Upload</title>
</head>
<body>
	<div class="example">
		<h3>File Uploaded!</h3>
		<div id="uploaded-files" class="panel text-center">
			%s
		</div>
	</div>
</body>
</html>
`

var dropdownPage = `<!DOCTYPE html>
<html>
<head>
	<title>Dropdown</title>
</head>
<body>
	<div class="example">
		<h3>Dropdown List</h3>
		<select id="dropdown">
			<option value="" disabled="disabled" selected="selected">Please select an option</option>
			<option value="1">Option 1</option>
			<option value="2">Option 2</option>
		</select>
	</div>
</body>
</html>
`

var hoversPage = `<!DOCTYPE html>
<html>
<head>
	<title>Hovers</title>
	<style>
		.figure { display: inline-block; margin: 20px; width: 160px; height: 200px; }
		.figure img { width: 150px; height: 150px; background: #ccc; }
		.figcaption { display: none; }
		.figure:hover .figcaption { display: block; }
	</style>
</head>
<body>
	<div class="example">
		<h3>Hovers</h3>
		<p>Hover over the image for additional information</p>
		%s
	</div>
</body>
</html>
`

var figure = `<div class="figure">
			<img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=" alt="User Avatar">
			<div class="figcaption">
				<h5>name: user%[1]d</h5>
				<a href="/users/%[1]d">View profile</a>
			</div>
		</div>
		`

var userPage = `<!DOCTYPE html>
<html>
<head>
	<title>User %[1]d</title>
</head>
<body>
	<h1>user%[1]d</h1>
</body>
</html>
`

var entryAdPage = `<!DOCTYPE html>
<html>
<head>
	<title>Entry Ad</title>
	<style>
		.modal { display: none; position: fixed; top: 0; left: 0; width: 100%; height: 100%; background: rgba(0,0,0,0.6); }
		.modal-footer p { cursor: pointer; }
	</style>
</head>
<body>
	<div class="example">
		<h3>Entry Ad</h3>
		<p>Displays an ad on page load.</p>
		<p>To re-enable it, <a id="restart-ad" href="/entry_ad">click here</a>.</p>
	</div>
	<div id="modal" class="modal">
		<div class="modal-title">
			<h3>This is a modal window</h3>
		</div>
		<div class="modal-body">
			<p>It's commonly used to encourage a user to take an action.</p>
		</div>
		<div class="modal-footer">
			<p onclick="document.getElementById('modal').style.display = 'none';">Close</p>
		</div>
	</div>
	<script>
		setTimeout(function() {
			document.getElementById('modal').style.display = 'block';
		}, 200);
	</script>
</body>
</html>
`

var framesPage = `<!DOCTYPE html>
<html>
<head>
	<title>Frames</title>
</head>
<body>
	<h1 class="text-center">Frames</h1>
	<div id="framesWrapper">
		<iframe id="frame1" src="/sample" width="500px" height="350px"></iframe>
		<iframe id="frame2" src="/sample" width="100px" height="100px"></iframe>
	</div>
</body>
</html>
`

var samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Sample</title>
</head>
<body>
	<h1 id="sampleHeading">This is a sample page</h1>
</body>
</html>
`

var nestedFramesPage = `<!DOCTYPE html>
<html>
<head>
	<title>Nested Frames</title>
</head>
<frameset rows="50%,50%">
	<frame src="/frame_top" scrolling="no" name="frame-top">
	<frame src="/frame_bottom" name="frame-bottom">
</frameset>
</html>
`

var frameTopPage = `<!DOCTYPE html>
<html>
<frameset cols="33%,33%,33%" name="frameset-middle">
	<frame src="/frame_left" scrolling="no" name="frame-left">
	<frame src="/frame_middle" scrolling="no" name="frame-middle">
	<frame src="/frame_right" scrolling="no" name="frame-right">
</frameset>
</html>
`

var frameLeafPage = `<!DOCTYPE html>
<html>
<head>
</head>
<body>
	%s
</body>
</html>
`

// Handler serves the demo pages.
var Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	glog.V(2).Infof("demosite: %s %s", r.Method, p)

	switch {
	case p == "/download":
		serveDownloads(w)
		return
	case strings.HasPrefix(p, "/download/"):
		serveFile(w, r, path.Base(p))
		return
	case p == "/upload":
		serveUpload(w, r)
		return
	case p == "/hovers":
		var figures strings.Builder
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(&figures, figure, i)
		}
		writePage(w, fmt.Sprintf(hoversPage, figures.String()))
		return
	case strings.HasPrefix(p, "/users/"):
		n, err := strconv.Atoi(path.Base(p))
		if err != nil || n < 1 || n > 3 {
			http.NotFound(w, r)
			return
		}
		writePage(w, fmt.Sprintf(userPage, n))
		return
	}

	page, ok := map[string]string{
		"/":              indexPage,
		"/dropdown":      dropdownPage,
		"/entry_ad":      entryAdPage,
		"/frames":        framesPage,
		"/sample":        samplePage,
		"/nested_frames": nestedFramesPage,
		"/frame_top":     frameTopPage,
		"/frame_left":    fmt.Sprintf(frameLeafPage, "LEFT"),
		"/frame_middle":  fmt.Sprintf(frameLeafPage, `<div id="content">MIDDLE</div>`),
		"/frame_right":   fmt.Sprintf(frameLeafPage, "RIGHT"),
		"/frame_bottom":  fmt.Sprintf(frameLeafPage, "BOTTOM"),
	}[p]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writePage(w, page)
})

func writePage(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func serveDownloads(w http.ResponseWriter) {
	names := make([]string, 0, len(Files))
	for name := range Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var links strings.Builder
	for _, name := range names {
		fmt.Fprintf(&links, "<a href=\"/download/%s\">%s</a>\n\t\t", name, html.EscapeString(name))
	}
	writePage(w, fmt.Sprintf(downloadPage, links.String()))
}

func serveFile(w http.ResponseWriter, r *http.Request, name string) {
	contents, ok := Files[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(contents)))
	fmt.Fprint(w, contents)
}

func serveUpload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writePage(w, uploadPage)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		glog.Errorf("demosite: parsing upload: %v", err)
		http.Error(w, "bad upload", http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	f.Close()
	glog.Infof("demosite: received %s (%d bytes)", hdr.Filename, hdr.Size)
	// Browsers may send a full path.
	name := path.Base(strings.Replace(hdr.Filename, `\`, "/", -1))
	writePage(w, fmt.Sprintf(uploadedPage, html.EscapeString(name)))
}
