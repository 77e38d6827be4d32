package searxng

// engineNames lists the engine identifiers a stock SearXNG instance understands.
// Add new names here as the backend gains engines.
var engineNames = []string{
	"1337x", "360search", "360search_videos", "9gag", "acfun", "adobe_stock", "ahmia", "alpinelinux",
	"annas_archive", "ansa", "apkmirror", "apple_app_store", "apple_maps", "archlinux", "artic",
	"arxiv", "ask", "astrophysics_data_system", "baidu", "bandcamp", "base", "bilibili", "bing",
	"bing_images", "bing_news", "bing_videos", "bitchute", "bpb", "brave", "bt4g", "btdigg",
	"ccc_media", "chefkoch", "chinaso", "cloudflareai", "command", "core", "cppreference", "crates",
	"crossref", "currency_convert", "dailymotion", "deepl", "deezer", "demo_offline", "demo_online",
	"destatis", "deviantart", "dictzone", "digbt", "discourse", "docker_hub", "doku", "duckduckgo",
	"duckduckgo_definitions", "duckduckgo_extra", "duckduckgo_weather", "duden", "dummyoffline",
	"dummy", "ebay", "elasticsearch", "emojipedia", "fdroid", "findthatmeme", "flickr",
	"flickr_noapi", "freesound", "frinkiac", "fyyd", "geizhals", "genius", "gitea", "github",
	"gitlab", "goodreads", "google", "google_images", "google_news", "google_play", "google_scholar",
	"google_videos", "hackernews", "hex", "huggingface", "il_post", "imdb", "imgur", "ina",
	"invidious", "ipernity", "iqiyi", "jisho", "json_engine", "kickass", "lemmy", "lib_rs",
	"libretranslate", "lingva", "livespace", "loc", "mariadb_server", "mastodon", "material_icons",
	"mediathekviewweb", "mediawiki", "meilisearch", "metacpan", "microsoft_learn", "mixcloud",
	"mojeek", "mongodb", "moviepilot", "mozhi", "mrs", "mullvad_leta", "mwmbl", "mysql_server",
	"naver", "niconico", "npm", "nyaa", "odysee", "ollama", "open_meteo", "openclipart",
	"openlibrary", "opensemantic", "openstreetmap", "openverse", "pdbe", "peertube", "photon",
	"pinterest", "piped", "piratebay", "pixabay", "pixiv", "pkg_go_dev", "podcastindex", "postgresql",
	"presearch", "public_domain_image_archive", "pubmed", "pypi", "quark", "qwant", "radio_browser",
	"recoll", "reddit", "redis_server", "reuters", "rottentomatoes", "rumble", "scanr_structures",
	"searchcode_code", "searx_engine", "seekr", "selfhst", "semantic_scholar", "senscritique",
	"sepiasearch", "seznam", "sogou", "sogou_images", "sogou_videos", "sogou_wechat", "solidtorrents",
	"solr", "soundcloud", "spotify", "springer", "sqlite", "stackexchange", "startpage", "steam",
	"stract", "svgrepo", "tagesschau", "tineye", "tokyotoshokan", "tootfinder", "torznab",
	"translated", "tubearchivist", "unsplash", "uxwing", "vimeo", "voidlinux", "wallhaven",
	"wikicommons", "wikidata", "wikipedia", "wolframalpha_api", "wolframalpha_noapi", "wordnik",
	"wttr", "www1x", "xpath", "yacy", "yahoo", "yahoo_news", "yandex", "yandex_music", "yep",
	"youtube_api", "youtube_noapi", "yummly", "zlibrary",
}
