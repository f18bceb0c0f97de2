package api

// indexHTML is the booth UI. When the server uses the push source the page
// opens the camera with getUserMedia and streams JPEG frames to
// /api/camera/feed; the preview itself always comes back from /stream.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Photo Booth</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 900px;
            margin: 30px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-top: 0; }
        #preview { width: 100%; border-radius: 8px; background: #222; }
        .status { padding: 10px; margin: 15px 0; border-left: 4px solid #4caf50; background: #e8f5e9; }
        .status.error { border-color: #e53935; background: #ffebee; }
        button { padding: 10px 18px; margin-right: 8px; border: 0; border-radius: 4px; background: #1976d2; color: white; cursor: pointer; }
        #filters button { background: #555; }
        #result img { max-height: 480px; margin-top: 15px; }
        code { background: #f5f5f5; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Photo Booth</h1>
        <img id="preview" src="/stream" alt="camera preview">
        <div id="status" class="status">Connecting...</div>
        <div>
            <button onclick="post('/api/run')">Start (Space)</button>
            <button onclick="post('/api/snap')">Single shot</button>
            <button onclick="post('/api/retake')">Retake (Esc)</button>
            <a id="download" href="/api/strip" hidden><button>Download (Enter)</button></a>
        </div>
        <p id="filters"></p>
        <div id="result"></div>
        <p>Keys: <code>Space</code> start, <code>Enter</code> download, <code>Esc</code> retake, <code>1</code>-<code>5</code> filters.</p>
    </div>
<script>
const statusEl = document.getElementById('status');
function show(msg, isError) {
    statusEl.textContent = msg;
    statusEl.className = isError ? 'status error' : 'status';
}
function post(path) {
    return fetch(path, {method: 'POST'}).then(r => r.json()).then(j => { if (j.error) show(j.error, true); return j; });
}
function describe(st) {
    switch (st.phase) {
    case 'counting_down': return 'Get ready... ' + st.remaining;
    case 'flashing': return 'Smile!';
    case 'capturing': return 'Capturing...';
    case 'pausing': return 'Next shot coming up';
    case 'done': return 'Composing your strip...';
    default: return 'Ready. Press Space to start.';
    }
}

fetch('/api/filters').then(r => r.json()).then(list => {
    const el = document.getElementById('filters');
    list.forEach(f => {
        const b = document.createElement('button');
        b.textContent = f.label + (f.key ? ' (' + f.key + ')' : '');
        b.onclick = () => fetch('/api/settings', {method: 'PUT', body: JSON.stringify({filter: f.kind})});
        el.appendChild(b);
    });
});

const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
const events = new WebSocket(proto + location.host + '/api/events');
events.onmessage = m => {
    const e = JSON.parse(m.data);
    if (e.type === 'error' || e.type === 'capture_skipped') {
        show(e.message || e.error, true);
        return;
    }
    show(describe(e.state), false);
    if (e.type === 'composed') {
        const ts = Date.now();
        document.getElementById('result').innerHTML = '<img src="/api/strip?ts=' + ts + '">';
        document.getElementById('download').hidden = false;
    }
    if (e.type === 'reset') {
        document.getElementById('result').innerHTML = '';
        document.getElementById('download').hidden = true;
    }
};

document.addEventListener('keydown', ev => {
    const key = ev.code === 'Space' ? 'space' : ev.key;
    fetch('/api/keys/' + encodeURIComponent(key), {method: 'POST'})
        .then(r => r.json())
        .then(j => { if (j.action === 'download') location.href = j.download; });
    if (ev.code === 'Space') ev.preventDefault();
});

fetch('/api/camera').then(r => r.json()).then(cam => {
    if (cam.source !== 'push') { if (cam.terminal) show(cam.message, true); return; }
    const feed = new WebSocket(proto + location.host + '/api/camera/feed');
    feed.binaryType = 'arraybuffer';
    feed.onmessage = m => { const j = JSON.parse(m.data); show(j.message, true); };
    if (!navigator.mediaDevices || !navigator.mediaDevices.getUserMedia) {
        feed.onopen = () => feed.send('NotSupportedError');
        return;
    }
    navigator.mediaDevices.getUserMedia({video: {width: {ideal: 1280}, height: {ideal: 720}, facingMode: 'user'}, audio: false})
        .then(stream => {
            const video = document.createElement('video');
            video.srcObject = stream;
            video.muted = true;
            video.play();
            const canvas = document.createElement('canvas');
            const ctx = canvas.getContext('2d');
            setInterval(() => {
                if (feed.readyState !== 1 || !video.videoWidth) return;
                canvas.width = video.videoWidth;
                canvas.height = video.videoHeight;
                ctx.drawImage(video, 0, 0);
                canvas.toBlob(b => b && b.arrayBuffer().then(buf => feed.send(buf)), 'image/jpeg', 0.85);
            }, 1000 / 15);
        })
        .catch(err => {
            const send = () => feed.send(JSON.stringify({error: err.name}));
            if (feed.readyState === 1) send(); else feed.onopen = send;
        });
});
</script>
</body>
</html>`
