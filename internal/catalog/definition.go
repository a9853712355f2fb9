package catalog

import (
	"fmt"
	"strings"

	"github.com/dunamismax/imagetools/internal/domain"
)

const (
	CategoryConvert  = "convert"
	CategoryResize   = "resize"
	CategorySocial   = "social"
	CategoryCompress = "compress"
	CategoryPDF      = "pdf"
	CategoryEdit     = "edit"
	CategoryAI       = "ai"
)

// Definition is the static input a Registry is built from.
type Definition struct {
	Categories []domain.CategoryDescriptor
	Tools      []domain.ToolDescriptor
}

var builtinCategories = []domain.CategoryDescriptor{
	{ID: CategoryConvert, Name: "Image Converters", Color: domain.ColorBlue},
	{ID: CategoryResize, Name: "Image Resizers", Color: domain.ColorGreen},
	{ID: CategorySocial, Name: "Social Media Resizers", Color: domain.ColorTeal},
	{ID: CategoryCompress, Name: "Image Compressors", Color: domain.ColorPurple},
	{ID: CategoryPDF, Name: "PDF Tools", Color: domain.ColorRed},
	{ID: CategoryEdit, Name: "Image Editors", Color: domain.ColorOrange},
	{ID: CategoryAI, Name: "AI Image Tools", Color: domain.ColorPink},
}

var (
	convertSources = []string{
		"jpg", "jpeg", "png", "webp", "heic", "gif", "bmp", "tiff", "avif",
		"svg", "ico", "jfif", "heif", "psd", "raw", "eps", "tga",
		"cr2", "nef", "dng", "arw",
	}
	convertTargets = []string{"jpg", "png", "webp", "gif", "bmp", "tiff", "ico", "avif"}

	resizeFormats = []string{"jpg", "png", "webp", "gif", "bmp", "tiff", "heic", "svg"}

	resizeDimensions = [][2]int{
		{100, 100}, {150, 150}, {200, 200}, {250, 250}, {300, 300}, {400, 400},
		{500, 500}, {600, 600}, {800, 600}, {1024, 768}, {1280, 720}, {1920, 1080},
		{2560, 1440}, {3840, 2160}, {600, 400}, {640, 480}, {720, 1280}, {1080, 1920},
	}

	targetKilobytes = []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 150, 200, 250, 300, 400, 500}

	compressFormats = []string{"jpg", "png", "webp", "gif", "bmp", "tiff", "heic", "svg", "avif"}

	pdfSources = []string{
		"jpg", "png", "webp", "heic", "gif", "bmp", "tiff", "avif",
		"svg", "jfif", "psd", "eps", "tga", "ico", "heif", "raw",
	}
	pdfTargets = []string{"jpg", "png", "webp", "tiff", "bmp", "gif", "svg"}
)

type platformSize struct {
	slug   string
	name   string
	width  int
	height int
	tier   domain.Tier
}

var socialPlatforms = []platformSize{
	{"instagram-post", "Instagram Post", 1080, 1080, domain.Tier1},
	{"instagram-story", "Instagram Story", 1080, 1920, domain.Tier1},
	{"instagram-reel-cover", "Instagram Reel Cover", 1080, 1920, domain.Tier2},
	{"instagram-profile", "Instagram Profile Picture", 320, 320, domain.Tier2},
	{"facebook-cover", "Facebook Cover", 820, 312, domain.Tier1},
	{"facebook-post", "Facebook Post", 1200, 630, domain.Tier2},
	{"facebook-profile", "Facebook Profile Picture", 170, 170, domain.Tier2},
	{"facebook-event-cover", "Facebook Event Cover", 1920, 1005, domain.Tier3},
	{"twitter-header", "Twitter Header", 1500, 500, domain.Tier1},
	{"twitter-post", "Twitter Post", 1600, 900, domain.Tier2},
	{"twitter-profile", "Twitter Profile Picture", 400, 400, domain.Tier2},
	{"linkedin-banner", "LinkedIn Banner", 1584, 396, domain.Tier1},
	{"linkedin-post", "LinkedIn Post", 1200, 627, domain.Tier2},
	{"linkedin-profile", "LinkedIn Profile Picture", 400, 400, domain.Tier2},
	{"youtube-thumbnail", "YouTube Thumbnail", 1280, 720, domain.Tier1},
	{"youtube-banner", "YouTube Banner", 2560, 1440, domain.Tier2},
	{"youtube-profile", "YouTube Profile Picture", 800, 800, domain.Tier3},
	{"pinterest-pin", "Pinterest Pin", 1000, 1500, domain.Tier2},
	{"tiktok-profile", "TikTok Profile Picture", 200, 200, domain.Tier3},
	{"tiktok-video-cover", "TikTok Video Cover", 1080, 1920, domain.Tier3},
	{"whatsapp-dp", "WhatsApp DP", 500, 500, domain.Tier2},
	{"whatsapp-status", "WhatsApp Status", 1080, 1920, domain.Tier3},
	{"snapchat-story", "Snapchat Story", 1080, 1920, domain.Tier3},
	{"discord-avatar", "Discord Avatar", 128, 128, domain.Tier3},
	{"discord-banner", "Discord Banner", 960, 540, domain.Tier3},
	{"twitch-banner", "Twitch Banner", 1200, 480, domain.Tier3},
	{"twitch-profile", "Twitch Profile Picture", 256, 256, domain.TierBonus},
	{"reddit-banner", "Reddit Banner", 1920, 384, domain.TierBonus},
	{"tumblr-header", "Tumblr Header", 3000, 1055, domain.TierBonus},
	{"etsy-banner", "Etsy Banner", 3360, 840, domain.TierBonus},
	{"shopify-product", "Shopify Product Image", 2048, 2048, domain.Tier3},
	{"amazon-product", "Amazon Product Image", 2000, 2000, domain.Tier3},
	{"ebay-product", "eBay Product Image", 1600, 1600, domain.TierBonus},
	{"google-display-ad", "Google Display Ad", 300, 250, domain.TierBonus},
	{"email-header", "Email Header", 600, 200, domain.TierBonus},
	{"zoom-background", "Zoom Background", 1920, 1080, domain.Tier3},
	{"teams-background", "Microsoft Teams Background", 1920, 1080, domain.TierBonus},
	{"spotify-cover", "Spotify Playlist Cover", 3000, 3000, domain.TierBonus},
	{"podcast-cover", "Podcast Cover Art", 3000, 3000, domain.TierBonus},
	{"kindle-cover", "Kindle Book Cover", 1600, 2560, domain.TierBonus},
}

var documentSizes = []platformSize{
	{"passport-size-photo", "Passport Size Photo", 600, 600, domain.Tier2},
	{"us-visa-photo", "US Visa Photo", 600, 600, domain.Tier3},
	{"pan-card-photo", "PAN Card Photo", 213, 213, domain.TierBonus},
	{"signature", "Signature", 140, 60, domain.TierBonus},
	{"id-card-photo", "ID Card Photo", 413, 531, domain.TierBonus},
}

type namedTool struct {
	slug    string
	name    string
	summary string
	tier    domain.Tier
	preset  domain.Preset
}

var pdfUtilities = []namedTool{
	{"merge-pdf", "Merge PDF", "Combine multiple PDF files into a single document", domain.Tier1, domain.Preset{}},
	{"split-pdf", "Split PDF", "Split a PDF into separate pages or page ranges", domain.Tier1, domain.Preset{}},
	{"compress-pdf", "Compress PDF", "Reduce PDF file size while keeping it readable", domain.Tier1, domain.Preset{}},
	{"rotate-pdf", "Rotate PDF", "Rotate PDF pages to the correct orientation", domain.Tier2, domain.Preset{}},
	{"unlock-pdf", "Unlock PDF", "Remove the open password from a PDF you own", domain.Tier2, domain.Preset{}},
	{"protect-pdf", "Protect PDF", "Add a password to a PDF document", domain.Tier2, domain.Preset{}},
	{"pdf-to-word", "PDF to Word", "Turn a PDF into an editable Word document", domain.Tier1, domain.Preset{}},
	{"word-to-pdf", "Word to PDF", "Convert Word documents to PDF", domain.Tier1, domain.Preset{}},
	{"pdf-to-excel", "PDF to Excel", "Extract PDF tables into a spreadsheet", domain.Tier2, domain.Preset{}},
	{"excel-to-pdf", "Excel to PDF", "Convert spreadsheets to PDF", domain.Tier2, domain.Preset{}},
	{"pdf-to-powerpoint", "PDF to PowerPoint", "Turn PDF pages into presentation slides", domain.Tier3, domain.Preset{}},
	{"powerpoint-to-pdf", "PowerPoint to PDF", "Convert presentations to PDF", domain.Tier3, domain.Preset{}},
	{"sign-pdf", "Sign PDF", "Add a signature to a PDF document", domain.Tier2, domain.Preset{}},
	{"watermark-pdf", "Watermark PDF", "Stamp text or an image over PDF pages", domain.Tier3, domain.Preset{}},
	{"organize-pdf", "Organize PDF", "Reorder, add or remove PDF pages", domain.Tier3, domain.Preset{}},
	{"extract-pdf-pages", "Extract PDF Pages", "Save selected pages as a new PDF", domain.Tier3, domain.Preset{}},
	{"delete-pdf-pages", "Delete PDF Pages", "Remove unwanted pages from a PDF", domain.Tier3, domain.Preset{}},
	{"pdf-page-numbers", "Add Page Numbers to PDF", "Number the pages of a PDF document", domain.TierBonus, domain.Preset{}},
	{"crop-pdf", "Crop PDF", "Trim the margins of PDF pages", domain.TierBonus, domain.Preset{}},
	{"flatten-pdf", "Flatten PDF", "Flatten form fields and annotations", domain.TierBonus, domain.Preset{}},
	{"repair-pdf", "Repair PDF", "Recover data from a damaged PDF", domain.TierBonus, domain.Preset{}},
	{"html-to-pdf", "HTML to PDF", "Save a web page as a PDF", domain.Tier3, domain.Preset{}},
	{"pdf-to-text", "PDF to Text", "Extract plain text from a PDF", domain.Tier3, domain.Preset{}},
	{"ocr-pdf", "OCR PDF", "Make scanned PDFs searchable", domain.TierBonus, domain.Preset{}},
	{"grayscale-pdf", "Grayscale PDF", "Convert PDF colors to grayscale", domain.TierBonus, domain.Preset{}},
	{"resize-pdf", "Resize PDF", "Change the page size of a PDF", domain.TierBonus, domain.Preset{}},
}

var editTools = []namedTool{
	{"rotate-image", "Rotate Image", "Rotate images by 90, 180 or 270 degrees", domain.Tier1, domain.Preset{RotationDegrees: 90}},
	{"rotate-image-90", "Rotate Image 90 Degrees", "Turn an image a quarter turn clockwise", domain.Tier2, domain.Preset{RotationDegrees: 90}},
	{"rotate-image-180", "Rotate Image 180 Degrees", "Turn an image upside down", domain.Tier2, domain.Preset{RotationDegrees: 180}},
	{"rotate-image-270", "Rotate Image 270 Degrees", "Turn an image a quarter turn counter-clockwise", domain.Tier3, domain.Preset{RotationDegrees: 270}},
	{"rotate-jpg", "Rotate JPG", "Rotate JPG photos without leaving the browser", domain.Tier3, domain.Preset{RotationDegrees: 90, OutputFormat: domain.FormatJPEG}},
	{"rotate-png", "Rotate PNG", "Rotate PNG images and keep transparency", domain.Tier3, domain.Preset{RotationDegrees: 90, OutputFormat: domain.FormatPNG}},
	{"rotate-webp", "Rotate WebP", "Rotate WebP images", domain.TierBonus, domain.Preset{RotationDegrees: 90, OutputFormat: domain.FormatWebP}},
	{"rotate-heic", "Rotate HEIC", "Rotate iPhone HEIC photos", domain.TierBonus, domain.Preset{RotationDegrees: 90, OutputFormat: domain.FormatJPEG}},
	{"flip-image", "Flip Image", "Mirror an image horizontally or vertically", domain.Tier1, domain.Preset{}},
	{"flip-image-horizontal", "Flip Image Horizontally", "Mirror an image left to right", domain.Tier3, domain.Preset{}},
	{"flip-image-vertical", "Flip Image Vertically", "Mirror an image top to bottom", domain.Tier3, domain.Preset{}},
	{"crop-image", "Crop Image", "Cut an image down to the area you need", domain.Tier1, domain.Preset{}},
	{"crop-jpg", "Crop JPG", "Crop JPG photos", domain.Tier3, domain.Preset{OutputFormat: domain.FormatJPEG}},
	{"crop-png", "Crop PNG", "Crop PNG images", domain.Tier3, domain.Preset{OutputFormat: domain.FormatPNG}},
	{"crop-webp", "Crop WebP", "Crop WebP images", domain.TierBonus, domain.Preset{OutputFormat: domain.FormatWebP}},
	{"circle-crop", "Circle Crop", "Crop an image into a circle", domain.Tier2, domain.Preset{OutputFormat: domain.FormatPNG}},
	{"image-enlarger", "Image Enlarger", "Make small images bigger", domain.Tier2, domain.Preset{}},
	{"add-text-to-image", "Add Text to Image", "Write captions on top of an image", domain.Tier2, domain.Preset{}},
	{"add-watermark", "Add Watermark", "Protect images with a text watermark", domain.Tier2, domain.Preset{}},
	{"blur-image", "Blur Image", "Blur an image or hide sensitive details", domain.Tier3, domain.Preset{}},
	{"pixelate-image", "Pixelate Image", "Pixelate faces or text in an image", domain.Tier3, domain.Preset{}},
	{"grayscale-image", "Grayscale Image", "Convert an image to shades of gray", domain.Tier3, domain.Preset{}},
	{"black-and-white-image", "Black and White Image", "Turn a photo black and white", domain.Tier3, domain.Preset{}},
	{"invert-colors", "Invert Image Colors", "Create a negative of an image", domain.TierBonus, domain.Preset{}},
	{"sharpen-image", "Sharpen Image", "Make blurry photos crisper", domain.Tier3, domain.Preset{}},
	{"adjust-brightness", "Adjust Brightness", "Brighten or darken an image", domain.TierBonus, domain.Preset{}},
	{"adjust-contrast", "Adjust Contrast", "Increase or decrease image contrast", domain.TierBonus, domain.Preset{}},
	{"color-picker", "Image Color Picker", "Pick colors from any image", domain.Tier2, domain.Preset{}},
	{"image-to-base64", "Image to Base64", "Encode an image as a Base64 string", domain.Tier3, domain.Preset{}},
	{"base64-to-image", "Base64 to Image", "Decode a Base64 string into an image", domain.Tier3, domain.Preset{}},
	{"add-border-to-image", "Add Border to Image", "Frame an image with a colored border", domain.TierBonus, domain.Preset{}},
	{"round-corners", "Round Image Corners", "Give an image rounded corners", domain.TierBonus, domain.Preset{OutputFormat: domain.FormatPNG}},
	{"meme-generator", "Meme Generator", "Make memes with top and bottom text", domain.Tier2, domain.Preset{}},
	{"collage-maker", "Collage Maker", "Arrange several photos into one collage", domain.Tier2, domain.Preset{}},
	{"combine-images", "Combine Images", "Join images side by side or stacked", domain.Tier3, domain.Preset{}},
	{"split-image", "Split Image", "Cut an image into equal parts", domain.Tier3, domain.Preset{}},
	{"image-grid-splitter", "Image Grid Splitter", "Split an image into an Instagram grid", domain.TierBonus, domain.Preset{}},
	{"photo-editor", "Photo Editor", "Quick edits for everyday photos", domain.Tier2, domain.Preset{}},
	{"exif-remover", "EXIF Remover", "Strip location and camera data from photos", domain.Tier3, domain.Preset{}},
	{"view-exif-data", "EXIF Viewer", "Inspect the metadata stored in a photo", domain.TierBonus, domain.Preset{}},
	{"favicon-generator", "Favicon Generator", "Create a favicon from any image", domain.Tier2, domain.Preset{Width: 32, Height: 32, OutputFormat: domain.FormatPNG}},
}

var aiTools = []namedTool{
	{"remove-background", "Remove Background", "Remove the background from any photo", domain.Tier1, domain.Preset{OutputFormat: domain.FormatPNG}},
	{"change-background", "Change Background", "Swap a photo background for a color or scene", domain.Tier2, domain.Preset{}},
	{"blur-background", "Blur Background", "Add a portrait-style blur behind the subject", domain.Tier2, domain.Preset{}},
	{"ai-image-upscaler", "AI Image Upscaler", "Upscale images without losing detail", domain.Tier1, domain.Preset{}},
	{"ai-photo-enhancer", "AI Photo Enhancer", "Fix lighting, color and noise in one click", domain.Tier1, domain.Preset{}},
	{"ai-image-sharpener", "AI Image Sharpener", "Recover detail in blurry photos", domain.Tier2, domain.Preset{}},
	{"ai-colorize-photo", "AI Photo Colorizer", "Add color to black and white photos", domain.Tier2, domain.Preset{}},
	{"ai-face-retouch", "AI Face Retouch", "Smooth skin and touch up portraits", domain.Tier3, domain.Preset{}},
	{"ai-object-remover", "AI Object Remover", "Erase unwanted objects from photos", domain.Tier2, domain.Preset{}},
	{"ai-watermark-remover", "AI Watermark Remover", "Clean watermarks off your own images", domain.Tier3, domain.Preset{}},
	{"ai-image-generator", "AI Image Generator", "Create images from a text prompt", domain.Tier2, domain.Preset{}},
	{"ai-avatar-maker", "AI Avatar Maker", "Turn a selfie into a stylized avatar", domain.Tier3, domain.Preset{}},
	{"ai-cartoonizer", "AI Cartoonizer", "Turn photos into cartoons", domain.Tier3, domain.Preset{}},
	{"ai-anime-converter", "AI Anime Converter", "Redraw photos in anime style", domain.Tier3, domain.Preset{}},
	{"ai-sketch-converter", "AI Sketch Converter", "Convert photos into pencil sketches", domain.TierBonus, domain.Preset{}},
	{"ai-portrait-enhancer", "AI Portrait Enhancer", "Sharpen faces in low quality portraits", domain.TierBonus, domain.Preset{}},
	{"ai-denoise", "AI Denoise", "Remove grain and noise from photos", domain.TierBonus, domain.Preset{}},
	{"ai-old-photo-restorer", "AI Old Photo Restorer", "Repair scratches and fading in old photos", domain.Tier3, domain.Preset{}},
	{"ai-image-extender", "AI Image Extender", "Extend an image beyond its borders", domain.TierBonus, domain.Preset{}},
	{"ai-text-remover", "AI Text Remover", "Remove text overlays from images", domain.TierBonus, domain.Preset{}},
	{"ai-sky-replacement", "AI Sky Replacement", "Replace dull skies in landscape photos", domain.TierBonus, domain.Preset{}},
	{"ai-headshot-generator", "AI Headshot Generator", "Generate professional headshots from selfies", domain.Tier3, domain.Preset{}},
	{"ai-product-photo", "AI Product Photo", "Place products on clean studio backgrounds", domain.TierBonus, domain.Preset{}},
	{"ai-image-caption", "AI Image Caption Generator", "Describe an image in words", domain.TierBonus, domain.Preset{}},
}

// Builtin returns the static catalog definition shipped with the service.
func Builtin() Definition {
	b := &definitionBuilder{seq: make(map[string]int)}
	b.converters()
	b.resizers()
	b.social()
	b.compressors()
	b.pdfTools()
	b.named(CategoryEdit, editTools, "edit")
	b.named(CategoryAI, aiTools, "ai")

	return Definition{
		Categories: append([]domain.CategoryDescriptor(nil), builtinCategories...),
		Tools:      b.tools,
	}
}

type definitionBuilder struct {
	tools []domain.ToolDescriptor
	seq   map[string]int
}

func (b *definitionBuilder) add(category string, t domain.ToolDescriptor) {
	b.seq[category]++
	t.ID = fmt.Sprintf("%s-%03d", category, b.seq[category])
	t.Category = category
	if len(t.HowToUse) == 0 {
		t.HowToUse = howToUse(t.Name)
	}
	if len(t.FAQs) == 0 {
		t.FAQs = faqs(t.Name)
	}
	b.tools = append(b.tools, t)
}

func (b *definitionBuilder) converters() {
	for _, src := range convertSources {
		for _, dst := range convertTargets {
			if src == dst {
				continue
			}
			name := fmt.Sprintf("%s to %s Converter", label(src), label(dst))
			b.add(CategoryConvert, domain.ToolDescriptor{
				Slug:        src + "-to-" + dst,
				Name:        name,
				Description: fmt.Sprintf("Convert %s images to %s format online for free. Fast, private and no signup required.", label(src), label(dst)),
				Tier:        converterTier(src, dst),
				Keywords:    []string{src + " to " + dst, "convert " + src, src + " converter", dst + " converter", src, dst},
				Features: []string{
					fmt.Sprintf("Converts %s to %s in seconds", label(src), label(dst)),
					"Adjustable output quality",
					"Files never leave your session",
				},
				Preset: domain.Preset{OutputFormat: presetFormat(dst)},
			})
		}
	}
	for _, dst := range convertTargets {
		b.add(CategoryConvert, domain.ToolDescriptor{
			Slug:        "image-to-" + dst,
			Name:        "Image to " + label(dst) + " Converter",
			Description: fmt.Sprintf("Convert any image to %s. Works with JPG, PNG, WebP, GIF, BMP and more.", label(dst)),
			Tier:        domain.Tier2,
			Keywords:    []string{"image to " + dst, "convert to " + dst, dst + " converter", dst},
			Features:    []string{"Accepts every common image format", "Batch friendly", "No watermark"},
			Preset:      domain.Preset{OutputFormat: presetFormat(dst)},
		})
	}
}

func (b *definitionBuilder) resizers() {
	b.add(CategoryResize, domain.ToolDescriptor{
		Slug:        "resize-image",
		Name:        "Image Resizer",
		Description: "Resize images to exact pixel dimensions online for free.",
		Tier:        domain.Tier1,
		Keywords:    []string{"resize image", "image resizer", "change image size", "resize photo"},
		Features:    []string{"Set width and height in pixels", "Keeps the original format", "Instant preview"},
	})
	for _, f := range resizeFormats {
		b.add(CategoryResize, domain.ToolDescriptor{
			Slug:        "resize-" + f,
			Name:        "Resize " + label(f),
			Description: fmt.Sprintf("Change the dimensions of %s images in seconds.", label(f)),
			Tier:        domain.Tier2,
			Keywords:    []string{"resize " + f, f + " resizer", "change " + f + " size", f},
			Features:    []string{"Exact width and height", "High quality resampling", "No signup"},
			Preset:      domain.Preset{OutputFormat: presetFormat(f)},
		})
	}
	for _, d := range resizeDimensions {
		dims := fmt.Sprintf("%dx%d", d[0], d[1])
		tier := domain.Tier3
		if d[0] == d[1] || d[0] >= 1280 {
			tier = domain.Tier2
		}
		b.add(CategoryResize, domain.ToolDescriptor{
			Slug:        "resize-image-to-" + dims,
			Name:        "Resize Image to " + dims,
			Description: fmt.Sprintf("Resize any image to exactly %d by %d pixels.", d[0], d[1]),
			Tier:        tier,
			Keywords:    []string{"resize image to " + dims, dims + " image", dims + " pixels", dims},
			Features:    []string{fmt.Sprintf("Output is always %s", dims), "Works with JPG, PNG and WebP"},
			Preset:      domain.Preset{Width: d[0], Height: d[1]},
		})
	}
	for _, kb := range targetKilobytes {
		b.add(CategoryResize, domain.ToolDescriptor{
			Slug:        fmt.Sprintf("resize-image-to-%dkb", kb),
			Name:        fmt.Sprintf("Resize Image to %dKB", kb),
			Description: fmt.Sprintf("Shrink an image until it fits under %dKB for forms and uploads.", kb),
			Tier:        domain.Tier3,
			Keywords:    []string{fmt.Sprintf("resize image to %dkb", kb), fmt.Sprintf("%dkb", kb), "reduce image size"},
			Features:    []string{"Targets an exact file size", "Useful for exam and job portals"},
			Preset:      domain.Preset{OutputFormat: domain.FormatJPEG, Quality: qualityForKilobytes(kb)},
		})
	}
	for _, mb := range []int{1, 2, 5} {
		b.add(CategoryResize, domain.ToolDescriptor{
			Slug:        fmt.Sprintf("resize-image-to-%dmb", mb),
			Name:        fmt.Sprintf("Resize Image to %dMB", mb),
			Description: fmt.Sprintf("Resize photos so they stay under %dMB.", mb),
			Tier:        domain.TierBonus,
			Keywords:    []string{fmt.Sprintf("resize image to %dmb", mb), fmt.Sprintf("%dmb", mb)},
			Features:    []string{"Keeps as much quality as possible"},
			Preset:      domain.Preset{OutputFormat: domain.FormatJPEG, Quality: 90},
		})
	}
	for _, unit := range []string{"cm", "mm", "inch", "pixel"} {
		b.add(CategoryResize, domain.ToolDescriptor{
			Slug:        "resize-image-in-" + unit,
			Name:        "Resize Image in " + strings.ToUpper(unit[:1]) + unit[1:],
			Description: fmt.Sprintf("Resize an image using %s as the unit of measure.", unit),
			Tier:        domain.TierBonus,
			Keywords:    []string{"resize image in " + unit, unit},
			Features:    []string{"Converts physical units to pixels at 96 DPI"},
		})
	}
	for _, p := range documentSizes {
		b.add(CategoryResize, platformTool(p, "Resize photos to the official %s size of %dx%d pixels."))
	}
}

func (b *definitionBuilder) social() {
	for _, p := range socialPlatforms {
		b.add(CategorySocial, platformTool(p, "Resize images for %s at the recommended %dx%d pixels."))
	}
}

func (b *definitionBuilder) compressors() {
	b.add(CategoryCompress, domain.ToolDescriptor{
		Slug:        "compress-image",
		Name:        "Image Compressor",
		Description: "Compress JPG, PNG and WebP images to reduce file size without visible quality loss.",
		Tier:        domain.Tier1,
		Keywords:    []string{"compress image", "image compressor", "reduce image size", "optimize image"},
		Features:    []string{"Adjustable quality slider", "Shows bytes saved", "No watermark"},
		Preset:      domain.Preset{OutputFormat: domain.FormatJPEG, Quality: 75},
	})
	for _, f := range compressFormats {
		b.add(CategoryCompress, domain.ToolDescriptor{
			Slug:        "compress-" + f,
			Name:        "Compress " + label(f),
			Description: fmt.Sprintf("Reduce the file size of %s images online.", label(f)),
			Tier:        compressTier(f),
			Keywords:    []string{"compress " + f, f + " compressor", "reduce " + f + " size", f},
			Features:    []string{"Smart lossy compression", "Keeps dimensions unchanged"},
			Preset:      domain.Preset{OutputFormat: presetFormat(f), Quality: 75},
		})
	}
	for _, kb := range targetKilobytes {
		b.add(CategoryCompress, domain.ToolDescriptor{
			Slug:        fmt.Sprintf("compress-image-to-%dkb", kb),
			Name:        fmt.Sprintf("Compress Image to %dKB", kb),
			Description: fmt.Sprintf("Compress an image to %dKB or less.", kb),
			Tier:        domain.Tier3,
			Keywords:    []string{fmt.Sprintf("compress image to %dkb", kb), fmt.Sprintf("%dkb", kb), "compress image"},
			Features:    []string{"Hits a target file size", "JPEG output"},
			Preset:      domain.Preset{OutputFormat: domain.FormatJPEG, Quality: qualityForKilobytes(kb)},
		})
	}
	for _, f := range []string{"jpg", "png"} {
		for _, kb := range []int{20, 50, 100, 200} {
			b.add(CategoryCompress, domain.ToolDescriptor{
				Slug:        fmt.Sprintf("compress-%s-to-%dkb", f, kb),
				Name:        fmt.Sprintf("Compress %s to %dKB", label(f), kb),
				Description: fmt.Sprintf("Compress %s files to %dKB or less.", label(f), kb),
				Tier:        domain.TierBonus,
				Keywords:    []string{fmt.Sprintf("compress %s to %dkb", f, kb), f, fmt.Sprintf("%dkb", kb)},
				Features:    []string{"Target file size", "Keeps the " + label(f) + " format"},
				Preset:      domain.Preset{OutputFormat: presetFormat(f), Quality: qualityForKilobytes(kb)},
			})
		}
	}
}

func (b *definitionBuilder) pdfTools() {
	for _, src := range pdfSources {
		b.add(CategoryPDF, domain.ToolDescriptor{
			Slug:        src + "-to-pdf",
			Name:        label(src) + " to PDF",
			Description: fmt.Sprintf("Convert %s images into a PDF document.", label(src)),
			Tier:        pdfTier(src),
			Keywords:    []string{src + " to pdf", "convert " + src + " to pdf", "pdf", src},
			Features:    []string{"One image per page", "Custom page order"},
		})
	}
	for _, dst := range pdfTargets {
		b.add(CategoryPDF, domain.ToolDescriptor{
			Slug:        "pdf-to-" + dst,
			Name:        "PDF to " + label(dst),
			Description: fmt.Sprintf("Export every page of a PDF as a %s image.", label(dst)),
			Tier:        pdfTier(dst),
			Keywords:    []string{"pdf to " + dst, "convert pdf to " + dst, "pdf", dst},
			Features:    []string{"One image per page", "High resolution output"},
			Preset:      domain.Preset{OutputFormat: presetFormat(dst)},
		})
	}
	b.named(CategoryPDF, pdfUtilities, "pdf")
}

func (b *definitionBuilder) named(category string, tools []namedTool, keyword string) {
	for _, n := range tools {
		b.add(category, domain.ToolDescriptor{
			Slug:        n.slug,
			Name:        n.name,
			Description: n.summary + ". Free, fast and private.",
			Tier:        n.tier,
			Keywords:    append(strings.Split(n.slug, "-"), strings.ToLower(n.name), keyword),
			Features:    []string{n.summary, "No installation required", "Free to use"},
			Preset:      n.preset,
		})
	}
}

func platformTool(p platformSize, descFormat string) domain.ToolDescriptor {
	dims := fmt.Sprintf("%dx%d", p.width, p.height)
	return domain.ToolDescriptor{
		Slug:        p.slug + "-resizer",
		Name:        p.name + " Resizer",
		Description: fmt.Sprintf(descFormat, p.name, p.width, p.height),
		Tier:        p.tier,
		Keywords:    []string{strings.ToLower(p.name) + " size", p.slug, dims, strings.ToLower(p.name) + " resizer"},
		Features:    []string{"Preset to " + dims, "Stretch-free preview", "JPEG output ready to upload"},
		Preset:      domain.Preset{Width: p.width, Height: p.height, OutputFormat: domain.FormatJPEG},
	}
}

func howToUse(name string) []string {
	return []string{
		"Upload an image (JPG, PNG, GIF, WebP or BMP up to 10MB).",
		"Adjust the settings for " + name + " if needed.",
		"Click Process and wait a moment.",
		"Download the result.",
	}
}

func faqs(name string) []domain.FAQ {
	return []domain.FAQ{
		{Question: "Is " + name + " free?", Answer: "Yes. There are no limits for files under 10MB."},
		{Question: "Are my files stored?", Answer: "No. Images only live for the length of your visit and are discarded when you leave."},
		{Question: "Which formats can I upload?", Answer: "JPG, PNG, GIF, WebP and BMP."},
	}
}

var labels = map[string]string{
	"jpg":  "JPG",
	"jpeg": "JPEG",
	"jfif": "JFIF",
	"webp": "WebP",
	"heic": "HEIC",
	"heif": "HEIF",
	"tiff": "TIFF",
	"avif": "AVIF",
}

func label(format string) string {
	if l, ok := labels[format]; ok {
		return l
	}
	return strings.ToUpper(format)
}

func presetFormat(ext string) domain.OutputFormat {
	f, ok := domain.ParseOutputFormat(ext)
	if !ok {
		return ""
	}
	return f
}

func converterTier(src, dst string) domain.Tier {
	popularSrc := map[string]bool{"heic": true, "jpg": true, "jpeg": true, "png": true, "webp": true}
	popularDst := map[string]bool{"jpg": true, "png": true, "webp": true}
	switch {
	case popularSrc[src] && popularDst[dst]:
		return domain.Tier1
	case popularSrc[src] || src == "avif" || src == "gif" || src == "svg":
		return domain.Tier2
	case src == "cr2" || src == "nef" || src == "dng" || src == "arw" || src == "tga" || src == "eps":
		return domain.TierBonus
	default:
		return domain.Tier3
	}
}

func compressTier(f string) domain.Tier {
	switch f {
	case "jpg", "png":
		return domain.Tier1
	case "webp", "gif":
		return domain.Tier2
	default:
		return domain.Tier3
	}
}

func pdfTier(f string) domain.Tier {
	switch f {
	case "jpg", "png":
		return domain.Tier1
	case "heic", "webp", "tiff":
		return domain.Tier2
	default:
		return domain.Tier3
	}
}

func qualityForKilobytes(kb int) int {
	switch {
	case kb <= 20:
		return 40
	case kb <= 50:
		return 55
	case kb <= 100:
		return 70
	default:
		return 80
	}
}
