package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleDashboardPage serves the static dashboard with no-cache headers
// so operators always see a fresh build after a deploy.
func (s *Server) handleDashboardPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.String(http.StatusOK, dashboardHTML)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Leadlight - Visitor Dashboard</title>
    <style>
        :root {
            --bg-primary: #09090B;
            --bg-card: #131314;
            --bg-table-header: #1a1a1c;
            --border-color: rgba(212, 162, 127, 0.15);
            --text-primary: #FAFAF5;
            --text-secondary: #9ca3af;
            --text-muted: #6b7280;
            --accent-primary: #D4A27F;
            --accent-secondary: #EBDBBC;
            --high-value: #4ade80;
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            padding: 20px;
        }

        h1 {
            font-size: 2.2rem;
            margin-bottom: 10px;
            color: var(--accent-primary);
            font-weight: 400;
        }

        h2 {
            font-size: 1.3rem;
            margin: 30px 0 15px;
            color: var(--accent-secondary);
            font-weight: 400;
        }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 20px;
            margin-bottom: 10px;
        }

        .stat-card {
            background: var(--bg-card);
            border-radius: 12px;
            padding: 20px;
            border: 1px solid var(--border-color);
        }

        .stat-value {
            font-size: 2.2rem;
            color: var(--accent-primary);
        }

        .stat-label {
            color: var(--text-muted);
            font-size: 0.9rem;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--bg-card);
            border-radius: 12px;
            overflow: hidden;
        }

        th {
            background: var(--bg-table-header);
            text-align: left;
            padding: 12px 16px;
            color: var(--text-secondary);
            font-weight: 500;
            font-size: 0.85rem;
            text-transform: uppercase;
        }

        td {
            padding: 12px 16px;
            border-top: 1px solid var(--border-color);
        }

        .high-value {
            color: var(--high-value);
            font-weight: 600;
        }

        .muted {
            color: var(--text-muted);
        }

        button {
            background: var(--accent-primary);
            color: var(--bg-primary);
            border: none;
            padding: 10px 20px;
            border-radius: 8px;
            cursor: pointer;
            font-size: 0.95rem;
            margin-bottom: 20px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Visitor Dashboard</h1>
        <button onclick="refresh()">Refresh</button>
        <div class="stats-grid" id="stats"></div>
        <h2>Companies</h2>
        <table>
            <thead>
                <tr><th>Company</th><th>Domain</th><th>Country</th><th>Visits</th><th>Lead Score</th><th>Last Visit</th></tr>
            </thead>
            <tbody id="companies"></tbody>
        </table>
        <h2>Recent Visits</h2>
        <table>
            <thead>
                <tr><th>Company</th><th>Referrer</th><th>Method</th><th>Score</th><th>When</th></tr>
            </thead>
            <tbody id="recent"></tbody>
        </table>
    </div>

    <script>
        function esc(s) {
            const div = document.createElement('div');
            div.textContent = s == null ? '' : String(s);
            return div.innerHTML;
        }

        function refresh() {
            fetch('/api/dashboard')
                .then(r => r.json())
                .then(data => {
                    document.getElementById('stats').innerHTML =
                        '<div class="stat-card"><div class="stat-value">' + data.totalVisits + '</div><div class="stat-label">Total Visits</div></div>' +
                        '<div class="stat-card"><div class="stat-value">' + data.uniqueCompanies + '</div><div class="stat-label">Unique Companies</div></div>';

                    document.getElementById('companies').innerHTML = (data.companies || []).map(c =>
                        '<tr><td class="' + (c.isHighValue ? 'high-value' : '') + '">' + esc(c.company) + '</td>' +
                        '<td class="muted">' + esc(c.domain || '-') + '</td>' +
                        '<td>' + esc(c.country || '-') + '</td>' +
                        '<td>' + c.visits + '</td>' +
                        '<td>' + c.leadScore + '</td>' +
                        '<td class="muted">' + new Date(c.lastVisit).toLocaleString() + '</td></tr>'
                    ).join('');

                    document.getElementById('recent').innerHTML = (data.recentVisits || []).map(v =>
                        '<tr><td>' + esc(v.identity.company) + '</td>' +
                        '<td class="muted">' + esc(v.referrerDomain) + '</td>' +
                        '<td>' + esc(v.identity.detectionMethod) + '</td>' +
                        '<td>' + v.identity.leadScore + '</td>' +
                        '<td class="muted">' + new Date(v.timestamp).toLocaleString() + '</td></tr>'
                    ).join('');
                });
        }
        refresh();
    </script>
</body>
</html>
`
